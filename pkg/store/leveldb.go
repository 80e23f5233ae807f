package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB keyspace layout. A NUL byte separates the namespace from the entry
// key so prefix scans never bleed across namespaces.
const (
	ldbMarkerPrefix = "ns\x00"
	ldbEntryPrefix  = "entry\x00"
	ldbSep          = "\x00"
)

// LevelDBProvider is a Provider backed by a single local LevelDB database.
// This is the durable on-disk backend for a worker running without external
// infrastructure.
type LevelDBProvider struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a LevelDB database at path.
func OpenLevelDB(path string) (*LevelDBProvider, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelDBProvider{db: db}, nil
}

// Close closes the underlying database.
func (p *LevelDBProvider) Close() error {
	return p.db.Close()
}

func ldbMarkerKey(namespace string) []byte {
	return []byte(ldbMarkerPrefix + namespace)
}

func ldbNamespacePrefix(namespace string) []byte {
	return []byte(ldbEntryPrefix + namespace + ldbSep)
}

func ldbEntryKey(namespace string, key Key) []byte {
	return append(ldbNamespacePrefix(namespace), key.String()...)
}

// Open marks the namespace as present and returns a scoped handle.
func (p *LevelDBProvider) Open(ctx context.Context, namespace string) (Handle, error) {
	if err := p.db.Put(ldbMarkerKey(namespace), nil, nil); err != nil {
		CacheErrors.WithLabelValues("leveldb", "open").Inc()
		return nil, fmt.Errorf("leveldb put marker: %w", err)
	}
	return &leveldbHandle{db: p.db, namespace: namespace}, nil
}

// Namespaces enumerates namespace markers.
func (p *LevelDBProvider) Namespaces(ctx context.Context) ([]string, error) {
	var namespaces []string
	iter := p.db.NewIterator(util.BytesPrefix([]byte(ldbMarkerPrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		namespaces = append(namespaces, strings.TrimPrefix(string(iter.Key()), ldbMarkerPrefix))
	}
	if err := iter.Error(); err != nil {
		CacheErrors.WithLabelValues("leveldb", "keys").Inc()
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	return namespaces, nil
}

// Delete removes the namespace marker and all of its entries in one batch.
// Deleting an absent namespace is a no-op.
func (p *LevelDBProvider) Delete(ctx context.Context, namespace string) error {
	batch := new(leveldb.Batch)
	iter := p.db.NewIterator(util.BytesPrefix(ldbNamespacePrefix(namespace)), nil)
	for iter.Next() {
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		batch.Delete(k)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		CacheErrors.WithLabelValues("leveldb", "delete").Inc()
		return fmt.Errorf("leveldb iterate: %w", err)
	}
	batch.Delete(ldbMarkerKey(namespace))

	if err := p.db.Write(batch, nil); err != nil {
		CacheErrors.WithLabelValues("leveldb", "delete").Inc()
		return fmt.Errorf("leveldb delete namespace: %w", err)
	}
	return nil
}

type leveldbHandle struct {
	db        *leveldb.DB
	namespace string
}

func (h *leveldbHandle) Namespace() string { return h.namespace }

func (h *leveldbHandle) Lookup(ctx context.Context, key Key) (*Entry, error) {
	data, err := h.db.Get(ldbEntryKey(h.namespace, key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			CacheMisses.WithLabelValues("leveldb").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("leveldb", "lookup").Inc()
		return nil, fmt.Errorf("leveldb get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("leveldb", "lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues("leveldb").Inc()
	return &entry, nil
}

func (h *leveldbHandle) Write(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("leveldb", "write").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := h.db.Put(ldbEntryKey(h.namespace, key), data, nil); err != nil {
		CacheErrors.WithLabelValues("leveldb", "write").Inc()
		return fmt.Errorf("leveldb put: %w", err)
	}

	CacheWrittenBytes.WithLabelValues("leveldb").Add(float64(len(data)))
	return nil
}

func (h *leveldbHandle) Keys(ctx context.Context) ([]Key, error) {
	prefix := ldbNamespacePrefix(h.namespace)
	var keys []Key
	iter := h.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		keys = append(keys, ParseKey(strings.TrimPrefix(string(iter.Key()), string(prefix))))
	}
	if err := iter.Error(); err != nil {
		CacheErrors.WithLabelValues("leveldb", "keys").Inc()
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	return keys, nil
}
