// Package omdb looks up posters and plots on the OMDb API. It is used as a
// fallback when TMDB has no image or synopsis for a title.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/cinescope/internal/metrics"
)

const DefaultBaseURL = "https://www.omdbapi.com/"

// notAvailable is how OMDb marks a missing value.
const notAvailable = "N/A"

// Movie holds the fields CineScope takes from OMDb. Values reported as
// "N/A" are returned as "".
type Movie struct {
	Title  string
	Year   string
	Poster string
	Plot   string
}

type response struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster"`
	Plot     string `json:"Plot"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ByTitle fetches the full-plot record for title (and year when non-zero).
// It returns nil without error when OMDb has no such movie.
func (c *Client) ByTitle(ctx context.Context, title string, year int) (*Movie, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	params.Set("plot", "full")
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordMetadataRequest("omdb", err)
		return nil, fmt.Errorf("omdb lookup %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("omdb lookup %q returned %d", title, resp.StatusCode)
		metrics.RecordMetadataRequest("omdb", err)
		return nil, err
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordMetadataRequest("omdb", err)
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	metrics.RecordMetadataRequest("omdb", nil)

	if payload.Response != "True" {
		return nil, nil
	}

	return &Movie{
		Title:  available(payload.Title),
		Year:   available(payload.Year),
		Poster: available(payload.Poster),
		Plot:   available(payload.Plot),
	}, nil
}

func available(s string) string {
	if s == notAvailable {
		return ""
	}
	return s
}
