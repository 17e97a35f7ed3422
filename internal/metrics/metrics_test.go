package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/movies/:id", "404"))

	RecordHTTPRequest("GET", "/api/v1/movies/:id", 404, 15*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/movies/:id", "404"))
	assert.Equal(t, before+1, after)
}

func TestTrackInFlight(t *testing.T) {
	start := testutil.ToFloat64(HTTPInFlight)
	TrackInFlight(true)
	TrackInFlight(true)
	TrackInFlight(false)
	assert.Equal(t, start+1, testutil.ToFloat64(HTTPInFlight))
	TrackInFlight(false)
}

func TestCounters(t *testing.T) {
	RecordReviewEvent(ReviewReport)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ReviewEvents.WithLabelValues(ReviewReport)), 1.0)

	RecordEnrichOutcome("updated")
	assert.GreaterOrEqual(t, testutil.ToFloat64(EnrichOutcomes.WithLabelValues("updated")), 1.0)

	SetBreakerState("tmdb", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(BreakerState.WithLabelValues("tmdb")))

	before := testutil.ToFloat64(MetadataRequests.WithLabelValues("omdb", "error"))
	RecordMetadataRequest("omdb", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(MetadataRequests.WithLabelValues("omdb", "error")))
}
