package main

import (
	"errors"
	"net/http"

	"github.com/hafizmfadli/cinescope/internal/data"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// showWatchlistHandler for the "GET /api/v1/users/watchlist" endpoint. Movies
// deleted since they were added are left out.
func (app *application) showWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	movies, err := app.models.Movies.GetMany(r.Context(), user.Watchlist)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// addToWatchlistHandler for the "POST /api/v1/users/watchlist" endpoint.
func (app *application) addToWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MovieID string `json:"movie_id"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.MovieID == "" {
		app.badRequestResponse(w, r, errors.New("movie_id is required"))
		return
	}

	movieID, err := bson.ObjectIDFromHex(input.MovieID)
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	_, err = app.models.Movies.Get(r.Context(), movieID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundMessageResponse(w, r, "movie")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	user := app.contextGetUser(r)

	watchlist, err := app.models.Users.AddToWatchlist(r.Context(), user.ID, movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "movie added to watchlist", "watchlist": watchlist}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// removeFromWatchlistHandler for the "DELETE /api/v1/users/watchlist/:movie_id" endpoint.
func (app *application) removeFromWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := app.readIDParam(r, "movie_id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	user := app.contextGetUser(r)

	watchlist, err := app.models.Users.RemoveFromWatchlist(r.Context(), user.ID, movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "movie removed from watchlist", "watchlist": watchlist}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
