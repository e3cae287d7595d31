package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReactionsTotal counts reaction mutations by target kind, reaction type and outcome.
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usof_reactions_total",
		Help: "Total number of reaction mutations",
	}, []string{"kind", "type", "result"})

	// RatingRecomputes counts rating recomputations by kind and outcome.
	RatingRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usof_rating_recomputes_total",
		Help: "Total number of rating recomputations",
	}, []string{"kind", "result"})

	// RatingQueueDepth is the number of recomputations waiting for the worker.
	RatingQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usof_rating_queue_depth",
		Help: "Pending rating recomputations",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usof_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usof_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome labels a metric result from an error code.
func Outcome(err error, code func(error) string) string {
	if err == nil {
		return "ok"
	}
	return code(err)
}
