package enrich

import (
	"net/http"

	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/hafizmfadli/cinescope/internal/omdb"
	"github.com/hafizmfadli/cinescope/internal/tmdb"
)

// FromConfig builds an Enricher over movies. It returns nil, nil when no
// TMDB key is configured. OMDb is wired in only when its key is set.
func FromConfig(cfg *config.Config, movies data.MovieStore, logger *jsonlog.Logger) (*Enricher, error) {
	if cfg.TMDB.APIKey == "" {
		return nil, nil
	}

	source, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL,
		tmdb.WithRateLimit(cfg.TMDB.RPS),
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDB.Timeout}),
	)
	if err != nil {
		return nil, err
	}

	e := &Enricher{
		Movies: movies,
		TMDB:   source,
		Logger: logger,
	}

	if cfg.OMDb.APIKey != "" {
		fallback, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL, cfg.OMDb.Timeout)
		if err != nil {
			return nil, err
		}
		e.OMDb = fallback
	}

	return e, nil
}
