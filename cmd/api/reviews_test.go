package main

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func reviewsPath(movie *data.Movie) string {
	return "/api/v1/movies/" + movie.ID.Hex() + "/reviews"
}

func TestCreateReview(t *testing.T) {
	app := newTestApplication(t)
	alice, aliceToken := app.createUser(t, "Alice", "alice@example.com", false)
	_, bobToken := app.createUser(t, "Bob", "bob@example.com", false)
	movie := app.createMovie(t, "Alien", 1979)

	res := app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 4}, "")
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 4, "comment": "Great"}, aliceToken)
	require.Equal(t, http.StatusCreated, res.status)

	var review data.Review
	res.decode(t, "review", &review)
	assert.Equal(t, alice.ID, review.User)
	assert.Equal(t, "Alice", review.Name)
	assert.Equal(t, 4.0, review.Rating)

	res = app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 5}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "movie already reviewed", res.body["error"])

	res = app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 2.5}, bobToken)
	require.Equal(t, http.StatusCreated, res.status)

	stored, err := app.models.Movies.Get(context.Background(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.NumReviews)
	assert.Equal(t, 3.3, stored.AvgRating)
}

func TestCreateReviewValidation(t *testing.T) {
	app := newTestApplication(t)
	_, token := app.createUser(t, "Alice", "alice@example.com", false)
	movie := app.createMovie(t, "Alien", 1979)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"missing rating", reviewsPath(movie), map[string]any{"comment": "meh"}, http.StatusUnprocessableEntity},
		{"rating too high", reviewsPath(movie), map[string]any{"rating": 5.5}, http.StatusUnprocessableEntity},
		{"negative rating", reviewsPath(movie), map[string]any{"rating": -1}, http.StatusUnprocessableEntity},
		{"unknown movie", "/api/v1/movies/" + bson.NewObjectID().Hex() + "/reviews", map[string]any{"rating": 3}, http.StatusNotFound},
		{"malformed movie id", "/api/v1/movies/abc/reviews", map[string]any{"rating": 3}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.request(t, http.MethodPost, tt.path, tt.body, token)
			assert.Equal(t, tt.status, res.status)
		})
	}

	res := app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 0}, token)
	assert.Equal(t, http.StatusCreated, res.status, "zero is a valid rating")
}

func TestBlockedUserCannotReview(t *testing.T) {
	app := newTestApplication(t)
	user, token := app.createUser(t, "Alice", "alice@example.com", false)
	movie := app.createMovie(t, "Alien", 1979)

	user.IsBlocked = true
	require.NoError(t, app.models.Users.Update(context.Background(), user))

	res := app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": 4}, token)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "your account has been blocked", res.body["error"])
}

// addReview posts a review as token and returns its id.
func addReview(t *testing.T, app *testApp, movie *data.Movie, token string, rating float64) bson.ObjectID {
	t.Helper()

	res := app.request(t, http.MethodPost, reviewsPath(movie), map[string]any{"rating": rating}, token)
	require.Equal(t, http.StatusCreated, res.status)

	var review data.Review
	res.decode(t, "review", &review)
	return review.ID
}

func TestVoteReview(t *testing.T) {
	app := newTestApplication(t)
	_, aliceToken := app.createUser(t, "Alice", "alice@example.com", false)
	_, bobToken := app.createUser(t, "Bob", "bob@example.com", false)
	_, carolToken := app.createUser(t, "Carol", "carol@example.com", false)
	movie := app.createMovie(t, "Alien", 1979)

	reviewID := addReview(t, app, movie, aliceToken, 4)
	base := reviewsPath(movie) + "/" + reviewID.Hex()

	res := app.request(t, http.MethodPost, base+"/like", nil, bobToken)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, 1.0, res.body["upvotes"])

	res = app.request(t, http.MethodPost, base+"/dislike", nil, bobToken)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = app.request(t, http.MethodPost, base+"/dislike", nil, carolToken)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, 1.0, res.body["upvotes"])
	assert.Equal(t, 1.0, res.body["downvotes"])

	res = app.request(t, http.MethodPost, reviewsPath(movie)+"/"+bson.NewObjectID().Hex()+"/like", nil, carolToken)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "review not found", res.body["error"])

	res = app.request(t, http.MethodPost, reviewsPath(movie)+"/nope/like", nil, carolToken)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestConcurrentVotesAreAllCounted(t *testing.T) {
	app := newTestApplication(t)
	_, authorToken := app.createUser(t, "Author", "author@example.com", false)
	movie := app.createMovie(t, "Alien", 1979)
	reviewID := addReview(t, app, movie, authorToken, 4)
	path := reviewsPath(movie) + "/" + reviewID.Hex() + "/like"

	tokens := make([]string, 3)
	for i := range tokens {
		_, tokens[i] = app.createUser(t, "Voter", []string{"a", "b", "c"}[i]+"@example.com", false)
	}

	var wg sync.WaitGroup
	statuses := make([]int, len(tokens))
	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = app.request(t, http.MethodPost, path, nil, token).status
		}()
	}
	wg.Wait()

	stored, err := app.models.Movies.Get(context.Background(), movie.ID)
	require.NoError(t, err)

	ok := 0
	for _, s := range statuses {
		if s == http.StatusOK {
			ok++
		}
	}
	assert.Equal(t, ok, stored.Reviews[0].Upvotes)
}

func TestReportAndModerateReview(t *testing.T) {
	app := newTestApplication(t)
	_, aliceToken := app.createUser(t, "Alice", "alice@example.com", false)
	_, bobToken := app.createUser(t, "Bob", "bob@example.com", false)
	_, adminToken := app.createUser(t, "Root", "root@example.com", true)
	movie := app.createMovie(t, "Alien", 1979)

	reviewID := addReview(t, app, movie, aliceToken, 1)
	addReview(t, app, movie, bobToken, 5)
	base := reviewsPath(movie) + "/" + reviewID.Hex()

	res := app.request(t, http.MethodPost, base+"/report", nil, bobToken)
	require.Equal(t, http.StatusOK, res.status)

	res = app.request(t, http.MethodPost, base+"/report", map[string]any{"reason": "spoilers"}, bobToken)
	require.Equal(t, http.StatusOK, res.status)

	res = app.request(t, http.MethodGet, "/api/v1/reviews/reported", nil, bobToken)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = app.request(t, http.MethodGet, "/api/v1/reviews/reported", nil, adminToken)
	require.Equal(t, http.StatusOK, res.status)

	var reported []reportedReview
	res.decode(t, "reviews", &reported)
	require.Len(t, reported, 1)
	assert.Equal(t, movie.ID, reported[0].MovieID)
	assert.Equal(t, "Alien", reported[0].MovieTitle)
	require.Len(t, reported[0].Review.Reports, 2)
	assert.Equal(t, data.DefaultReportReason, reported[0].Review.Reports[0].Reason)
	assert.Equal(t, "spoilers", reported[0].Review.Reports[1].Reason)

	res = app.request(t, http.MethodDelete, base, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = app.request(t, http.MethodDelete, base, nil, adminToken)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, 5.0, res.body["avg_rating"])
	assert.Equal(t, 1.0, res.body["num_reviews"])

	res = app.request(t, http.MethodDelete, base, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = app.request(t, http.MethodGet, "/api/v1/reviews/reported", nil, adminToken)
	reported = nil
	res.decode(t, "reviews", &reported)
	assert.Empty(t, reported)
}
