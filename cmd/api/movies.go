package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Sizes of the curated lists.
const (
	discoverSize = 50
	randomSize   = 20
)

// enrichTimeout bounds the background lookup started for a new movie.
const enrichTimeout = 30 * time.Second

// createMovieHandler for the "POST /api/v1/movies" endpoint.
func (app *application) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title      string   `json:"title"`
		Detail     string   `json:"detail"`
		Image      string   `json:"image"`
		TrailerURL string   `json:"trailer_url"`
		Year       int32    `json:"year"`
		Genres     []string `json:"genres"`
		Cast       []string `json:"cast"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movie := &data.Movie{
		Title:      input.Title,
		Detail:     input.Detail,
		Image:      input.Image,
		TrailerURL: input.TrailerURL,
		Year:       input.Year,
		Genres:     data.CleanList(input.Genres),
		Cast:       data.CleanList(input.Cast),
	}

	v := validator.New()

	if data.ValidateMovie(v, movie); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Movies.Insert(r.Context(), movie)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if app.enricher != nil && (movie.Image == "" || movie.Detail == "") {
		app.enrichInBackground(movie.ID)
	}

	// Include a Location header to let the client know which URL they can find
	// the newly-created resource at.
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("%s/movies/%s", apiPrefix, movie.ID.Hex()))

	err = app.writeJSON(w, http.StatusCreated, envelope{"movie": movie}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// enrichInBackground fills in the missing metadata of a new movie without
// holding up the response. It re-reads the movie to avoid clobbering edits
// made in the meantime.
func (app *application) enrichInBackground(id bson.ObjectID) {
	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()

		props := map[string]string{"movie_id": id.Hex()}

		movie, err := app.models.Movies.Get(ctx, id)
		if err != nil {
			app.logger.PrintError(err, props)
			return
		}

		fields, err := app.enricher.Enrich(ctx, movie, false)
		if err != nil {
			app.logger.PrintError(err, props)
			return
		}
		if len(fields) == 0 {
			return
		}

		if err := app.models.Movies.Update(ctx, movie); err != nil {
			app.logger.PrintError(err, props)
			return
		}

		props["fields"] = fmt.Sprint(fields)
		app.logger.PrintInfo("movie enriched", props)
	})
}

// showMovieHandler for the "GET /api/v1/movies/:id" endpoint.
func (app *application) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	movie, err := app.models.Movies.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundMessageResponse(w, r, "movie")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movie": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateMovieHandler for the "PUT /api/v1/movies/:id" endpoint. Fields left
// out of the body keep their current value.
func (app *application) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	movie, err := app.models.Movies.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundMessageResponse(w, r, "movie")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// A client holding a stale copy can send the version it read and get a 409
	// instead of overwriting someone else's change.
	if expected := r.Header.Get("X-Expected-Version"); expected != "" {
		if strconv.FormatInt(int64(movie.Version), 10) != expected {
			app.editConflictResponse(w, r)
			return
		}
	}

	// Pointers tell a missing field (nil) apart from an explicit zero value.
	var input struct {
		Title      *string  `json:"title"`
		Detail     *string  `json:"detail"`
		Image      *string  `json:"image"`
		TrailerURL *string  `json:"trailer_url"`
		Year       *int32   `json:"year"`
		Genres     []string `json:"genres"`
		Cast       []string `json:"cast"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Title != nil {
		movie.Title = *input.Title
	}
	if input.Detail != nil {
		movie.Detail = *input.Detail
	}
	if input.Image != nil {
		movie.Image = *input.Image
	}
	if input.TrailerURL != nil {
		movie.TrailerURL = *input.TrailerURL
	}
	if input.Year != nil {
		movie.Year = *input.Year
	}
	if input.Genres != nil {
		movie.Genres = data.CleanList(input.Genres)
	}
	if input.Cast != nil {
		movie.Cast = data.CleanList(input.Cast)
	}

	v := validator.New()

	if data.ValidateMovie(v, movie); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Movies.Update(r.Context(), movie)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movie": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteMovieHandler for the "DELETE /api/v1/movies/:id" endpoint.
func (app *application) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	err = app.models.Movies.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundMessageResponse(w, r, "movie")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "movie successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listMoviesHandler for the "GET /api/v1/movies" endpoint.
func (app *application) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		data.MovieQuery
		data.Filters
	}

	v := validator.New()
	qs := r.URL.Query()

	input.Title = app.readString(qs, "q", "")
	input.Genres = app.readCSV(qs, "genre", nil)
	input.Year = app.readInt32(qs, "year", 0, v)
	input.MinRating = app.readFloat(qs, "min_rating", 0, v)

	input.Filters.Page = app.readInt(qs, "page", 1, v)
	input.Filters.PageSize = app.readInt(qs, "page_size", 100, v)
	input.Filters.Sort = app.readString(qs, "sort", "-created_at")
	input.Filters.SortSafelist = data.MovieSortSafelist

	v.Check(input.MinRating >= 0 && input.MinRating <= 5, "min_rating", "must be between 0 and 5")

	if data.ValidateFilters(v, input.Filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movies, metadata, err := app.models.Movies.GetAll(r.Context(), input.MovieQuery, input.Filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// discover writes the first discoverSize movies in the given sort order.
func (app *application) discover(w http.ResponseWriter, r *http.Request, sort string) {
	filters := data.Filters{
		Page:         1,
		PageSize:     discoverSize,
		Sort:         sort,
		SortSafelist: data.MovieSortSafelist,
	}

	movies, _, err := app.models.Movies.GetAll(r.Context(), data.MovieQuery{}, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// topMoviesHandler for the "GET /api/v1/discover/top" endpoint.
func (app *application) topMoviesHandler(w http.ResponseWriter, r *http.Request) {
	app.discover(w, r, "-avg_rating")
}

// newMoviesHandler for the "GET /api/v1/discover/new" endpoint.
func (app *application) newMoviesHandler(w http.ResponseWriter, r *http.Request) {
	app.discover(w, r, "-created_at")
}

// randomMoviesHandler for the "GET /api/v1/discover/random" endpoint.
func (app *application) randomMoviesHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.models.Movies.Sample(r.Context(), randomSize)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listGenresHandler for the "GET /api/v1/genres" endpoint.
func (app *application) listGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := app.models.Movies.Genres(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"genres": genres}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
