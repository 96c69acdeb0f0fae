package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainz_provider_calls_total",
			Help: "Total weather provider API calls",
		},
		[]string{"provider", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rainz_provider_latency_seconds",
			Help:    "Weather provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainz_aggregations_total",
			Help: "Total aggregation passes computed",
		},
		[]string{"outcome"},
	)

	EnsembleFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainz_ensemble_fallbacks_total",
			Help: "Ensemble member discovery outcomes by tier",
		},
		[]string{"tier"}, // "members", "single", "synthetic"
	)

	RefinementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rainz_refinements_total",
			Help: "LLM refinement attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "disabled"
	)
)
