package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiPrefix = "/api/v1"

// routes returns the router with every endpoint and the middleware chain wrapped around it.
func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.fallbackHandler)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	h := func(method, pattern string, handler http.HandlerFunc) {
		app.handle(router, method, apiPrefix+pattern, handler)
	}

	h(http.MethodGet, "/health", app.healthcheckHandler)

	h(http.MethodGet, "/movies", app.listMoviesHandler)
	h(http.MethodPost, "/movies", app.requireAdmin(app.createMovieHandler))
	h(http.MethodGet, "/movies/:id", app.showMovieHandler)
	h(http.MethodPut, "/movies/:id", app.requireAdmin(app.updateMovieHandler))
	h(http.MethodDelete, "/movies/:id", app.requireAdmin(app.deleteMovieHandler))

	h(http.MethodGet, "/discover/top", app.topMoviesHandler)
	h(http.MethodGet, "/discover/new", app.newMoviesHandler)
	h(http.MethodGet, "/discover/random", app.randomMoviesHandler)
	h(http.MethodGet, "/genres", app.listGenresHandler)

	h(http.MethodPost, "/movies/:id/reviews", app.requireAuthenticatedUser(app.createReviewHandler))
	h(http.MethodPost, "/movies/:id/reviews/:review_id/like", app.requireAuthenticatedUser(app.likeReviewHandler))
	h(http.MethodPost, "/movies/:id/reviews/:review_id/dislike", app.requireAuthenticatedUser(app.dislikeReviewHandler))
	h(http.MethodPost, "/movies/:id/reviews/:review_id/report", app.requireAuthenticatedUser(app.reportReviewHandler))
	h(http.MethodDelete, "/movies/:id/reviews/:review_id", app.requireAdmin(app.deleteReviewHandler))
	h(http.MethodGet, "/reviews/reported", app.requireAdmin(app.listReportedReviewsHandler))

	h(http.MethodPost, "/users", app.registerUserHandler)
	h(http.MethodPost, "/users/login", app.loginUserHandler)
	h(http.MethodPost, "/users/logout", app.logoutUserHandler)
	h(http.MethodGet, "/users/profile", app.requireAuthenticatedUser(app.showProfileHandler))
	h(http.MethodPut, "/users/profile", app.requireAuthenticatedUser(app.updateProfileHandler))
	h(http.MethodGet, "/users/watchlist", app.requireAuthenticatedUser(app.showWatchlistHandler))
	h(http.MethodPost, "/users/watchlist", app.requireAuthenticatedUser(app.addToWatchlistHandler))
	h(http.MethodDelete, "/users/watchlist/:movie_id", app.requireAuthenticatedUser(app.removeFromWatchlistHandler))
	h(http.MethodGet, "/users/recommendations", app.requireAuthenticatedUser(app.recommendationsHandler))

	h(http.MethodGet, "/admin/users", app.requireAdmin(app.listUsersHandler))
	h(http.MethodPatch, "/admin/users/:id/block", app.requireAdmin(app.blockUserHandler))

	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return app.recoverPanic(app.requestID(app.metrics(app.enableCORS(app.rateLimit(app.authenticate(router))))))
}

// handle registers handler and records the route pattern for the metrics middleware.
func (app *application) handle(router *httprouter.Router, method, pattern string, handler http.HandlerFunc) {
	router.HandlerFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		if holder := routeHolderFromContext(r.Context()); holder != nil {
			holder.pattern = pattern
		}
		handler(w, r)
	})
}

// fallbackHandler serves the built frontend for unknown non-API GET paths
// when a static directory is configured. Paths that don't name a file get
// index.html so client-side routing works. Everything else is a JSON 404.
func (app *application) fallbackHandler(w http.ResponseWriter, r *http.Request) {
	dir := app.config.StaticDir
	if dir == "" || strings.HasPrefix(r.URL.Path, "/api/") || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		app.notFoundResponse(w, r)
		return
	}

	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		app.notFoundResponse(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
