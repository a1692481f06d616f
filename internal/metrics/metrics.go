// Package metrics registers the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP traffic, labelled by route template rather than raw path so ids do
// not explode cardinality.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamhub_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Engagement counters.
var (
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_toggles_total",
		Help: "Relationship toggles by edge kind and resulting state",
	}, []string{"edge", "state"})

	ToggleRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_toggle_retries_total",
		Help: "Toggles that lost an insert race and retried",
	}, []string{"edge"})

	VideoViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamhub_video_views_total",
		Help: "Recorded video views",
	})

	RefreshRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamhub_refresh_rejected_total",
		Help: "Refresh attempts rejected as replayed or superseded",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamhub_events_dropped_total",
		Help: "Engagement events dropped because the publisher buffer was full or the broker failed",
	})
)

// State renders a toggle result as a label value.
func State(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
