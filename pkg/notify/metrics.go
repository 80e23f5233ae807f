package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// notificationsShown tracks successfully displayed notifications
	notificationsShown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_notifications_shown_total",
			Help: "Total number of notifications displayed",
		},
	)

	// displayFailures tracks failed display requests
	displayFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_notification_display_failures_total",
			Help: "Total number of failed notification display requests",
		},
	)

	// interactionsTotal tracks notification interactions by action
	interactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_notification_interactions_total",
			Help: "Total notification interactions by selected action",
		},
		[]string{"action"}, // "explore", "close", "none"
	)
)
