// Package metrics holds the Prometheus instrumentation shared by the fetcher, assembler and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TMDBRequests counts metadata service attempts by outcome
	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_tmdb_requests_total",
			Help: "Total number of TMDB request attempts",
		},
		[]string{"outcome"}, // "success", "transient", "malformed", "rejected", "circuit_open"
	)

	TMDBRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movierec_tmdb_request_duration_seconds",
			Help:    "Duration of TMDB requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MetadataCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_metadata_cache_lookups_total",
			Help: "Metadata cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movierec_tmdb_circuit_breaker_state",
			Help: "TMDB circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	FallbackRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_fallback_records_total",
			Help: "Recommendation entries served from local fallback data",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "ambiguous", "empty"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movierec_recommendation_duration_seconds",
			Help:    "End-to-end duration of an enriched recommendation request",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
