package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (redis, leveldb, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_cache_hits_total",
			Help: "Total number of cache lookups that returned an entry",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses by backend
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_cache_misses_total",
			Help: "Total number of cache lookups that found no entry",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "open", "lookup", "write", "keys", "delete"
	)

	// CacheWrittenBytes tracks bytes written to cache by backend
	CacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_cache_written_bytes_total",
			Help: "Total bytes of response snapshots written to cache",
		},
		[]string{"backend"},
	)
)
