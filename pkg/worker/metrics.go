package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsTotal tracks dispatched events by type
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_events_total",
			Help: "Total dispatched events by type",
		},
		[]string{"type"}, // "fetch", "push", "interaction", "sync"
	)

	// lifetimeInflight tracks lifetime-registered work currently in flight
	lifetimeInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_lifetime_inflight",
			Help: "Lifetime-registered units of work currently in flight",
		},
	)
)
