package offers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offers_provider_calls_total",
		Help: "Provider fetch attempts by outcome.",
	}, []string{"provider", "outcome"})

	providerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offers_provider_duration_seconds",
		Help:    "Provider fetch latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	offersReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offers_returned_per_query",
		Help:    "Deduplicated offers returned per aggregated query.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
)
