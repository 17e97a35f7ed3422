package main

import (
	"net/http"

	"github.com/hafizmfadli/cinescope/internal/data"
)

const recommendationSize = 20

// recommendationsHandler for the "GET /api/v1/users/recommendations" endpoint.
// Users with favorite genres get the best rated movies in those genres,
// everyone else gets the best rated movies overall.
func (app *application) recommendationsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	filters := data.Filters{
		Page:         1,
		PageSize:     recommendationSize,
		Sort:         "-avg_rating",
		SortSafelist: data.MovieSortSafelist,
	}

	movies, _, err := app.models.Movies.GetAll(r.Context(), data.MovieQuery{Genres: user.FavoriteGenres}, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
