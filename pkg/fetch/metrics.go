package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// fetchTotal tracks intercepted requests by routing outcome
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_fetch_total",
			Help: "Total intercepted requests by outcome",
		},
		[]string{"outcome"}, // "cache_hit", "network", "fallback_root", "offline"
	)

	// fetchDuration tracks time to first response by outcome
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_fetch_duration_seconds",
			Help:    "Intercepted request duration in seconds by outcome",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"outcome"},
	)
)
