package store

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the namespace.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Provider is the capability interface over a durable key/value store
// partitioned into versioned namespaces. Implementations must guarantee no
// cross-namespace visibility: entries belong exclusively to the namespace
// that created them.
type Provider interface {
	// Open returns a handle scoped to the given namespace, creating it if
	// it does not exist.
	Open(ctx context.Context, namespace string) (Handle, error)

	// Namespaces enumerates all namespaces known to the store.
	Namespaces(ctx context.Context) ([]string, error)

	// Delete removes a namespace and every entry it owns. Deleting an
	// absent namespace is a no-op, not an error.
	Delete(ctx context.Context, namespace string) error
}

// Handle is a namespace-scoped view of the store.
type Handle interface {
	// Namespace returns the namespace this handle is scoped to.
	Namespace() string

	// Lookup returns the entry stored under key, or ErrCacheMiss.
	Lookup(ctx context.Context, key Key) (*Entry, error)

	// Write stores an entry under key. Writes are all-or-nothing: a torn
	// write must never be observable as a satisfied Lookup. Re-writing an
	// existing key replaces the entry (idempotent for equal snapshots).
	Write(ctx context.Context, key Key, entry *Entry) error

	// Keys enumerates the keys present in the namespace.
	Keys(ctx context.Context) ([]Key, error)
}
