// Package tmdb is a small client for the parts of The Movie Database API
// used to enrich catalog entries: movie search and movie details with
// videos and credits appended.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/cinescope/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// PosterBaseURL serves w780 renditions of poster paths.
	PosterBaseURL = "https://image.tmdb.org/t/p/w780"

	breakerName = "tmdb"
)

// SearchResult is a single match from /search/movie.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
}

type searchResponse struct {
	Page    int            `json:"page"`
	Results []SearchResult `json:"results"`
}

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type Videos struct {
	Results []Video `json:"results"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
}

// Details is the /movie/{id} payload with append_to_response=videos,credits.
type Details struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Videos      Videos  `json:"videos"`
	Credits     Credits `json:"credits"`
}

// Client talks to TMDB. Every request waits on a shared rate limiter and
// runs through a circuit breaker.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit sets the sustained request rate. A non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a TMDB client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(4, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.SetBreakerState(breakerName, int(gobreaker.StateClosed))
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
		},
	})

	return c, nil
}

// SearchMovie returns the first TMDB match for title (and year when
// non-zero), or nil when nothing matched.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("query must not be empty")
	}

	params := url.Values{}
	params.Set("query", title)
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var payload searchResponse
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", title, err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}

// MovieDetails fetches a movie with its videos and credits.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Details, error) {
	if id <= 0 {
		return nil, errors.New("movie id must be positive")
	}

	params := url.Values{}
	params.Set("append_to_response", "videos,credits")

	var payload Details
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb movie %d: %w", id, err)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("returned %d (latency=%v)", resp.StatusCode, latency)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	})
	metrics.RecordMetadataRequest(breakerName, err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
