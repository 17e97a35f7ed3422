// Package enrich fills in missing posters, synopses, trailers and cast lists
// of stored movies from TMDB, with OMDb as a fallback for posters and plots.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/hafizmfadli/cinescope/internal/metrics"
	"github.com/hafizmfadli/cinescope/internal/omdb"
	"github.com/hafizmfadli/cinescope/internal/tmdb"
)

// castSize is how many billed cast members are kept.
const castSize = 10

// pageSize is how many movies Run loads per store call.
const pageSize = 100

// MovieSource is the TMDB side of the lookup. *tmdb.Client implements it.
type MovieSource interface {
	SearchMovie(ctx context.Context, title string, year int) (*tmdb.SearchResult, error)
	MovieDetails(ctx context.Context, id int64) (*tmdb.Details, error)
}

// FallbackSource is the OMDb side of the lookup. *omdb.Client implements it.
type FallbackSource interface {
	ByTitle(ctx context.Context, title string, year int) (*omdb.Movie, error)
}

type Enricher struct {
	Movies data.MovieStore
	TMDB   MovieSource
	// OMDb is optional.
	OMDb   FallbackSource
	Logger *jsonlog.Logger
}

type Options struct {
	// Force refreshes every field, not only the empty ones.
	Force bool
	// DryRun computes changes without saving them.
	DryRun bool
}

// Outcome describes what happened to one movie.
type Outcome struct {
	Title  string
	Year   int32
	Status string
	Fields []string
	Err    error
}

const (
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type Summary struct {
	Updated  int
	Skipped  int
	Failed   int
	Outcomes []Outcome
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusUpdated:
		s.Updated++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
	metrics.RecordEnrichOutcome(o.Status)
}

// Run enriches every stored movie, oldest first. A failure on one movie is
// recorded and the run continues. Only a failure to list movies or a
// cancelled context aborts it.
func (e *Enricher) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary

	for page := 1; ; page++ {
		movies, meta, err := e.Movies.GetAll(ctx, data.MovieQuery{}, data.Filters{
			Page:         page,
			PageSize:     pageSize,
			Sort:         "created_at",
			SortSafelist: data.MovieSortSafelist,
		})
		if err != nil {
			return summary, fmt.Errorf("list movies: %w", err)
		}

		for _, movie := range movies {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.add(e.process(ctx, movie, opts))
		}

		if page >= meta.LastPage {
			break
		}
	}

	e.Logger.PrintInfo("enrichment finished", map[string]string{
		"updated": fmt.Sprint(summary.Updated),
		"skipped": fmt.Sprint(summary.Skipped),
		"failed":  fmt.Sprint(summary.Failed),
		"dry_run": fmt.Sprint(opts.DryRun),
	})
	return summary, nil
}

func (e *Enricher) process(ctx context.Context, movie *data.Movie, opts Options) Outcome {
	outcome := Outcome{Title: movie.Title, Year: movie.Year}

	fields, err := e.Enrich(ctx, movie, opts.Force)
	if err != nil {
		e.Logger.PrintError(err, map[string]string{"title": movie.Title})
		outcome.Status, outcome.Err = StatusFailed, err
		return outcome
	}
	if len(fields) == 0 {
		outcome.Status = StatusSkipped
		return outcome
	}

	if !opts.DryRun {
		if err := e.Movies.Update(ctx, movie); err != nil {
			e.Logger.PrintError(err, map[string]string{"title": movie.Title})
			outcome.Status, outcome.Err = StatusFailed, fmt.Errorf("save %q: %w", movie.Title, err)
			return outcome
		}
	}

	outcome.Status, outcome.Fields = StatusUpdated, fields
	return outcome
}

// needs reports which fields of movie should be looked up.
type needs struct {
	image, detail, trailer, cast bool
}

func needsFor(movie *data.Movie, force bool) needs {
	return needs{
		image:   force || movie.Image == "",
		detail:  force || movie.Detail == "",
		trailer: force || movie.TrailerURL == "",
		cast:    force || len(movie.Cast) == 0,
	}
}

func (n needs) any() bool {
	return n.image || n.detail || n.trailer || n.cast
}

// found holds the values gathered from the metadata sources.
type found struct {
	image, detail, trailer string
	cast                   []string
}

// ErrNoSource is returned by Enrich when no TMDB source is configured.
var ErrNoSource = errors.New("no metadata source configured")

// Enrich looks movie up and fills the needed fields in place. Each field
// takes the TMDB value, then the OMDb value, then keeps what it had. It
// returns the names of the fields that changed.
func (e *Enricher) Enrich(ctx context.Context, movie *data.Movie, force bool) ([]string, error) {
	n := needsFor(movie, force)
	if !n.any() {
		return nil, nil
	}
	if e.TMDB == nil {
		return nil, ErrNoSource
	}

	fromTMDB, err := e.lookupTMDB(ctx, movie)
	if err != nil {
		return nil, err
	}

	var fromOMDb found
	if e.OMDb != nil && (fromTMDB.image == "" || fromTMDB.detail == "") {
		om, err := e.OMDb.ByTitle(ctx, movie.Title, int(movie.Year))
		if err != nil {
			return nil, err
		}
		if om != nil {
			fromOMDb.image, fromOMDb.detail = om.Poster, om.Plot
		}
	}

	changed := []string{}
	if n.image {
		if v := firstNonEmpty(fromTMDB.image, fromOMDb.image, movie.Image); v != movie.Image {
			movie.Image = v
			changed = append(changed, "image")
		}
	}
	if n.detail {
		if v := firstNonEmpty(fromTMDB.detail, fromOMDb.detail, movie.Detail); v != movie.Detail {
			movie.Detail = v
			changed = append(changed, "detail")
		}
	}
	if n.trailer {
		if v := firstNonEmpty(fromTMDB.trailer, movie.TrailerURL); v != movie.TrailerURL {
			movie.TrailerURL = v
			changed = append(changed, "trailer_url")
		}
	}
	if n.cast && len(fromTMDB.cast) > 0 && !slices.Equal(fromTMDB.cast, movie.Cast) {
		movie.Cast = fromTMDB.cast
		changed = append(changed, "cast")
	}

	return changed, nil
}

func (e *Enricher) lookupTMDB(ctx context.Context, movie *data.Movie) (found, error) {
	result, err := e.TMDB.SearchMovie(ctx, movie.Title, int(movie.Year))
	if err != nil {
		return found{}, err
	}
	if result == nil {
		e.Logger.PrintInfo("tmdb has no match", map[string]string{
			"title": movie.Title,
			"year":  fmt.Sprint(movie.Year),
		})
		return found{}, nil
	}

	details, err := e.TMDB.MovieDetails(ctx, result.ID)
	if err != nil {
		return found{}, err
	}

	return found{
		image:   tmdb.PosterURL(details.PosterPath),
		detail:  details.Overview,
		trailer: tmdb.BestTrailer(details.Videos),
		cast:    tmdb.TopCast(details.Credits, castSize),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
