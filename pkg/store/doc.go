// Package store provides versioned, namespace-scoped storage of response
// snapshots.
//
// A namespace is an isolated cache scope named after a deploy version
// (e.g. "offline-v1"). Exactly one namespace is current at a time; bumping
// the version on deploy is the only supported invalidation mechanism. The
// lifecycle manager creates a namespace at install and retires every stale
// namespace at activation.
//
// Three backends implement the Provider interface:
//
//   - Redis (NewRedisProvider) for workers sharing a cache across processes
//   - LevelDB (OpenLevelDB) for a durable local cache with no external infra
//   - Memory (NewMemoryProvider) for tests and embedded usage
//
// # Basic Usage
//
//	provider, err := store.OpenLevelDB("./data/cache")
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	handle, err := provider.Open(ctx, "offline-v1")
//	if err != nil {
//		return err
//	}
//
//	entry, err := handle.Lookup(ctx, store.KeyForPath("/healthz"))
//	if err == store.ErrCacheMiss {
//		// miss - fetch from the network
//	}
//
// # Response Snapshots
//
//	// Duplicate a live response: one copy for the caller, one to persist.
//	entry, err := store.Snapshot(resp, "app.local")
//	if err != nil {
//		return err
//	}
//	if err := handle.Write(ctx, store.KeyFor(req), entry); err != nil {
//		return err
//	}
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - worker_cache_hits_total{backend} - Cache hits
//   - worker_cache_misses_total{backend} - Cache misses
//   - worker_cache_errors_total{backend,operation} - Operation errors
//   - worker_cache_written_bytes_total{backend} - Bytes written
package store
