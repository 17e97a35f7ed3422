package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/metrics"
	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// mutateAttempts is how often a review change is retried when another
// writer updated the movie first.
const mutateAttempts = 3

// mutateMovie loads a movie, applies fn and writes it back. An edit conflict
// re-runs the whole cycle against the fresh document. Errors from fn are
// returned unchanged and nothing is saved.
func (app *application) mutateMovie(ctx context.Context, id bson.ObjectID, fn func(*data.Movie) error) (*data.Movie, error) {
	var err error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		var movie *data.Movie
		movie, err = app.models.Movies.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if err = fn(movie); err != nil {
			return nil, err
		}

		err = app.models.Movies.Update(ctx, movie)
		if err == nil {
			return movie, nil
		}
		if !errors.Is(err, data.ErrEditConflict) {
			return nil, err
		}
	}
	return nil, err
}

// reviewErrorResponse maps the errors of a review change to a response.
func (app *application) reviewErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		app.notFoundMessageResponse(w, r, "movie")
	case errors.Is(err, data.ErrReviewNotFound):
		app.notFoundMessageResponse(w, r, "review")
	case errors.Is(err, data.ErrDuplicateReview):
		app.badRequestResponse(w, r, errors.New("movie already reviewed"))
	case errors.Is(err, data.ErrAlreadyVoted):
		app.badRequestResponse(w, r, errors.New("you have already voted on this review"))
	case errors.Is(err, data.ErrEditConflict):
		app.editConflictResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// reviewParams reads the movie and review ids from the path. It writes the
// 404 response itself and reports false when either is malformed.
func (app *application) reviewParams(w http.ResponseWriter, r *http.Request) (movieID, reviewID bson.ObjectID, ok bool) {
	movieID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return movieID, reviewID, false
	}

	reviewID, err = app.readIDParam(r, "review_id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "review")
		return movieID, reviewID, false
	}

	return movieID, reviewID, true
}

// createReviewHandler for the "POST /api/v1/movies/:id/reviews" endpoint.
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "movie")
		return
	}

	var input struct {
		Rating  *float64 `json:"rating" validate:"required,gte=0,lte=5"`
		Comment string   `json:"comment" validate:"max=2000"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user := app.contextGetUser(r)

	var review data.Review
	_, err = app.mutateMovie(r.Context(), id, func(movie *data.Movie) error {
		created, err := movie.AddReview(user, *input.Rating, input.Comment, time.Now().UTC())
		if err != nil {
			return err
		}
		review = *created
		return nil
	})
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	metrics.RecordReviewEvent(metrics.ReviewCreated)

	err = app.writeJSON(w, http.StatusCreated, envelope{"message": "review added", "review": review}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// voteReview counts an up or down vote from the current user.
func (app *application) voteReview(w http.ResponseWriter, r *http.Request, up bool) {
	movieID, reviewID, ok := app.reviewParams(w, r)
	if !ok {
		return
	}

	user := app.contextGetUser(r)

	movie, err := app.mutateMovie(r.Context(), movieID, func(movie *data.Movie) error {
		return movie.Vote(reviewID, user.ID, up, time.Now().UTC())
	})
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	event, message := metrics.ReviewUpvote, "review liked"
	if !up {
		event, message = metrics.ReviewDownvote, "review disliked"
	}
	metrics.RecordReviewEvent(event)

	var review data.Review
	for _, rv := range movie.Reviews {
		if rv.ID == reviewID {
			review = rv
			break
		}
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"message":   message,
		"upvotes":   review.Upvotes,
		"downvotes": review.Downvotes,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// likeReviewHandler for the "POST /api/v1/movies/:id/reviews/:review_id/like" endpoint.
func (app *application) likeReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.voteReview(w, r, true)
}

// dislikeReviewHandler for the "POST /api/v1/movies/:id/reviews/:review_id/dislike" endpoint.
func (app *application) dislikeReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.voteReview(w, r, false)
}

// reportReviewHandler for the "POST /api/v1/movies/:id/reviews/:review_id/report"
// endpoint. The body and its reason are optional.
func (app *application) reportReviewHandler(w http.ResponseWriter, r *http.Request) {
	movieID, reviewID, ok := app.reviewParams(w, r)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason" validate:"max=500"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil && !errors.Is(err, errEmptyBody) {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user := app.contextGetUser(r)

	_, err = app.mutateMovie(r.Context(), movieID, func(movie *data.Movie) error {
		return movie.Report(reviewID, user.ID, input.Reason, time.Now().UTC())
	})
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	metrics.RecordReviewEvent(metrics.ReviewReport)

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "review reported"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteReviewHandler for the "DELETE /api/v1/movies/:id/reviews/:review_id" endpoint.
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	movieID, reviewID, ok := app.reviewParams(w, r)
	if !ok {
		return
	}

	movie, err := app.mutateMovie(r.Context(), movieID, func(movie *data.Movie) error {
		return movie.RemoveReview(reviewID)
	})
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	metrics.RecordReviewEvent(metrics.ReviewDeleted)

	err = app.writeJSON(w, http.StatusOK, envelope{
		"message":     "review deleted",
		"avg_rating":  movie.AvgRating,
		"num_reviews": movie.NumReviews,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type reportedReview struct {
	MovieID    bson.ObjectID `json:"movie_id"`
	MovieTitle string        `json:"movie_title"`
	Review     data.Review   `json:"review"`
}

// listReportedReviewsHandler for the "GET /api/v1/reviews/reported" endpoint.
func (app *application) listReportedReviewsHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.models.Movies.Reported(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	reported := []reportedReview{}
	for _, movie := range movies {
		for _, review := range movie.ReportedReviews() {
			reported = append(reported, reportedReview{
				MovieID:    movie.ID,
				MovieTitle: movie.Title,
				Review:     review,
			})
		}
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reviews": reported}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
