// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts inbound conversation events by kind.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recbot_events_total",
		Help: "Inbound conversation events processed, by event kind.",
	}, []string{"kind"})

	// RecommendationsServed counts recommendation items shown to users.
	RecommendationsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recbot_recommendations_served_total",
		Help: "Recommendation items served to users, by category.",
	}, []string{"category"})

	// BackendFailures counts generate calls that resolved to the apology path.
	BackendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recbot_backend_failures_total",
		Help: "Backend generate calls that failed and degraded to the apology placeholder.",
	})

	// EmptyResponses counts backend responses that parsed to zero items.
	EmptyResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recbot_backend_empty_responses_total",
		Help: "Backend responses that were empty or yielded no parseable recommendations.",
	})

	// BackendLatency observes generate round-trip time in seconds.
	BackendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recbot_backend_latency_seconds",
		Help:    "Latency of backend generate calls.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
