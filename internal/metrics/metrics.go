// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinescope_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Reviews
	ReviewEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_review_events_total",
			Help: "Review activity by kind (created, upvote, downvote, report, deleted)",
		},
		[]string{"event"},
	)

	// Enrichment
	EnrichOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_enrich_movies_total",
			Help: "Movies processed by metadata enrichment, by outcome",
		},
		[]string{"outcome"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinescope_metadata_breaker_state",
			Help: "Circuit breaker state of a metadata client (0 closed, 1 half-open, 2 open)",
		},
		[]string{"client"},
	)

	MetadataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_metadata_requests_total",
			Help: "Outgoing metadata API requests by client and result",
		},
		[]string{"client", "result"},
	)
)

// Review event labels.
const (
	ReviewCreated  = "created"
	ReviewUpvote   = "upvote"
	ReviewDownvote = "downvote"
	ReviewReport   = "report"
	ReviewDeleted  = "deleted"
)

// RecordHTTPRequest records a finished request against its route pattern.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackInFlight increments or decrements the in-flight gauge.
func TrackInFlight(inc bool) {
	if inc {
		HTTPInFlight.Inc()
	} else {
		HTTPInFlight.Dec()
	}
}

func RecordReviewEvent(event string) {
	ReviewEvents.WithLabelValues(event).Inc()
}

func RecordEnrichOutcome(outcome string) {
	EnrichOutcomes.WithLabelValues(outcome).Inc()
}

func SetBreakerState(client string, state int) {
	BreakerState.WithLabelValues(client).Set(float64(state))
}

func RecordMetadataRequest(client string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MetadataRequests.WithLabelValues(client, result).Inc()
}
