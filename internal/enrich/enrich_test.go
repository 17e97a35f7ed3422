package enrich

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/hafizmfadli/cinescope/internal/omdb"
	"github.com/hafizmfadli/cinescope/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTMDB struct {
	results  map[string]*tmdb.SearchResult
	details  map[int64]*tmdb.Details
	failFor  string
	searches int
}

func (f *fakeTMDB) SearchMovie(_ context.Context, title string, _ int) (*tmdb.SearchResult, error) {
	f.searches++
	if title == f.failFor {
		return nil, errors.New("tmdb unavailable")
	}
	return f.results[title], nil
}

func (f *fakeTMDB) MovieDetails(_ context.Context, id int64) (*tmdb.Details, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

type fakeOMDb map[string]*omdb.Movie

func (f fakeOMDb) ByTitle(_ context.Context, title string, _ int) (*omdb.Movie, error) {
	return f[title], nil
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		results: map[string]*tmdb.SearchResult{
			"Heat":   {ID: 1},
			"Ran":    {ID: 2},
			"Broken": {ID: 99},
		},
		details: map[int64]*tmdb.Details{
			1: {
				Overview:   "A group of professional bank robbers...",
				PosterPath: "/heat.jpg",
				Videos:     tmdb.Videos{Results: []tmdb.Video{{Key: "h", Site: "YouTube", Type: "Trailer", Official: true}}},
				Credits:    tmdb.Credits{Cast: []tmdb.CastMember{{Name: "Al Pacino"}}},
			},
			// Ran has no poster or synopsis on TMDB.
			2: {Credits: tmdb.Credits{Cast: []tmdb.CastMember{{Name: "Tatsuya Nakadai"}}}},
		},
	}
}

func newEnricher(t *testing.T, movies ...*data.Movie) (*Enricher, data.MovieStore, *fakeTMDB) {
	t.Helper()

	store := data.NewMemoryMovieModel()
	for _, m := range movies {
		require.NoError(t, store.Insert(context.Background(), m))
	}

	source := newFakeTMDB()
	return &Enricher{
		Movies: store,
		TMDB:   source,
		OMDb: fakeOMDb{
			"Ran": {Poster: "https://omdb.example/ran.jpg", Plot: "An elderly lord abdicates..."},
		},
		Logger: jsonlog.NewLogger(io.Discard, jsonlog.LevelOff),
	}, store, source
}

func TestEnrichFillsMissingFields(t *testing.T) {
	e, _, _ := newEnricher(t)
	movie := &data.Movie{Title: "Heat", Year: 1995}

	fields, err := e.Enrich(context.Background(), movie, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"image", "detail", "trailer_url", "cast"}, fields)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/heat.jpg", movie.Image)
	assert.Equal(t, "A group of professional bank robbers...", movie.Detail)
	assert.Equal(t, "https://www.youtube.com/watch?v=h", movie.TrailerURL)
	assert.Equal(t, []string{"Al Pacino"}, movie.Cast)
}

func TestEnrichFallsBackToOMDb(t *testing.T) {
	e, _, _ := newEnricher(t)
	movie := &data.Movie{Title: "Ran", Year: 1985, TrailerURL: "https://youtu.be/existing"}

	fields, err := e.Enrich(context.Background(), movie, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"image", "detail", "cast"}, fields)
	assert.Equal(t, "https://omdb.example/ran.jpg", movie.Image)
	assert.Equal(t, "An elderly lord abdicates...", movie.Detail)
	assert.Equal(t, "https://youtu.be/existing", movie.TrailerURL)
}

func TestEnrichKeepsExistingValuesWhenForcedWithoutData(t *testing.T) {
	e, _, _ := newEnricher(t)
	movie := &data.Movie{
		Title:      "Unknown Film",
		Image:      "poster.jpg",
		Detail:     "kept",
		TrailerURL: "trailer",
		Cast:       []string{"Someone"},
	}

	fields, err := e.Enrich(context.Background(), movie, true)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Equal(t, "poster.jpg", movie.Image)
	assert.Equal(t, []string{"Someone"}, movie.Cast)
}

func TestEnrichNothingNeeded(t *testing.T) {
	e, _, source := newEnricher(t)
	movie := &data.Movie{Title: "Heat", Image: "i", Detail: "d", TrailerURL: "t", Cast: []string{"c"}}

	fields, err := e.Enrich(context.Background(), movie, false)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Equal(t, 0, source.searches)
}

func TestRunCountsOutcomes(t *testing.T) {
	e, store, source := newEnricher(t,
		&data.Movie{Title: "Heat", Year: 1995},
		&data.Movie{Title: "Complete", Image: "i", Detail: "d", TrailerURL: "t", Cast: []string{"c"}},
		&data.Movie{Title: "Broken"},
		&data.Movie{Title: "Ran", Year: 1985},
	)
	source.failFor = "Broken"

	summary, err := e.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 4)
	assert.Equal(t, "Heat", summary.Outcomes[0].Title)
	assert.Equal(t, StatusFailed, summary.Outcomes[2].Status)

	found, err := store.FindByTitleYear(context.Background(), "Heat", 1995)
	require.NoError(t, err)
	assert.Equal(t, "A group of professional bank robbers...", found.Detail)
	assert.Equal(t, int32(2), found.Version)
}

func TestRunDryRunDoesNotSave(t *testing.T) {
	e, store, _ := newEnricher(t, &data.Movie{Title: "Heat", Year: 1995})

	summary, err := e.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	found, err := store.FindByTitleYear(context.Background(), "Heat", 1995)
	require.NoError(t, err)
	assert.Empty(t, found.Detail)
	assert.Equal(t, int32(1), found.Version)
}

func TestEnrichWithoutSource(t *testing.T) {
	e := &Enricher{Logger: jsonlog.NewLogger(io.Discard, jsonlog.LevelOff)}

	_, err := e.Enrich(context.Background(), &data.Movie{Title: "x"}, false)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestFromConfig(t *testing.T) {
	logger := jsonlog.NewLogger(io.Discard, jsonlog.LevelOff)
	cfg := config.Default()

	e, err := FromConfig(cfg, data.NewMemoryMovieModel(), logger)
	require.NoError(t, err)
	assert.Nil(t, e)

	cfg.TMDB.APIKey = "tmdb-key"
	e, err = FromConfig(cfg, data.NewMemoryMovieModel(), logger)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Nil(t, e.OMDb)

	cfg.OMDb.APIKey = "omdb-key"
	e, err = FromConfig(cfg, data.NewMemoryMovieModel(), logger)
	require.NoError(t, err)
	assert.NotNil(t, e.OMDb)
}
