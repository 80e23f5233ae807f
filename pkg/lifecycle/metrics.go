package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// installsTotal tracks install attempts by result
	installsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_installs_total",
			Help: "Total number of install attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	// activationsTotal tracks completed activations
	activationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_activations_total",
			Help: "Total number of completed activations",
		},
	)

	// namespacesDeleted tracks stale namespaces retired at activation
	namespacesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_namespaces_deleted_total",
			Help: "Total number of stale cache namespaces retired",
		},
	)
)
