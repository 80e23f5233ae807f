// Package metrics provides the centralized Prometheus registry reference
// for the offline worker. All metrics are defined in their respective
// packages (store, lifecycle, fetch, notify, syncer, worker) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the worker.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/store):
//   - worker_cache_hits_total{backend} (Counter): Cache hits by backend
//   - worker_cache_misses_total{backend} (Counter): Cache misses by backend
//   - worker_cache_errors_total{backend,operation} (Counter): Cache operation errors
//   - worker_cache_written_bytes_total{backend} (Counter): Bytes of snapshots written
//
// Lifecycle Metrics (pkg/lifecycle):
//   - worker_installs_total{result} (Counter): Install attempts by result
//   - worker_activations_total (Counter): Completed activations
//   - worker_namespaces_deleted_total (Counter): Stale namespaces retired
//
// Fetch Metrics (pkg/fetch):
//   - worker_fetch_total{outcome} (Counter): Intercepted requests by outcome
//     (cache_hit, network, fallback_root, offline)
//   - worker_fetch_duration_seconds{outcome} (Histogram): Time to first response
//
// Notification Metrics (pkg/notify):
//   - worker_notifications_shown_total (Counter): Notifications displayed
//   - worker_notification_display_failures_total (Counter): Failed display requests
//   - worker_notification_interactions_total{action} (Counter): Interactions by action
//
// Sync Metrics (pkg/syncer):
//   - worker_sync_events_total{handling} (Counter): Sync events (completed, ignored)
//
// Event Metrics (pkg/worker):
//   - worker_events_total{type} (Counter): Dispatched events by type
//   - worker_lifetime_inflight (Gauge): Lifetime-registered work in flight
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(worker_cache_hits_total[5m])) /
//   (sum(rate(worker_cache_hits_total[5m])) + sum(rate(worker_cache_misses_total[5m])))
//
//   # Offline Fallback Rate
//   rate(worker_fetch_total{outcome="fallback_root"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(worker_fetch_duration_seconds_bucket[5m]))
//
//   # Work Stuck In Flight
//   worker_lifetime_inflight > 0
