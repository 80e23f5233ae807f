package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryProvider is an in-memory Provider. It is primarily meant for tests
// and embedded usage; contents do not survive a restart. Entries are stored
// in their encoded form so handles hand out snapshots, never shared state.
type MemoryProvider struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		namespaces: make(map[string]map[string][]byte),
	}
}

// Open returns a handle scoped to the namespace, creating it if needed.
func (p *MemoryProvider) Open(ctx context.Context, namespace string) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.namespaces[namespace]; !ok {
		p.namespaces[namespace] = make(map[string][]byte)
	}
	return &memoryHandle{provider: p, namespace: namespace}, nil
}

// Namespaces enumerates all namespaces.
func (p *MemoryProvider) Namespaces(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.namespaces))
	for ns := range p.namespaces {
		out = append(out, ns)
	}
	return out, nil
}

// Delete removes a namespace and all of its entries. No-op if absent.
func (p *MemoryProvider) Delete(ctx context.Context, namespace string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.namespaces, namespace)
	return nil
}

type memoryHandle struct {
	provider  *MemoryProvider
	namespace string
}

func (h *memoryHandle) Namespace() string { return h.namespace }

func (h *memoryHandle) Lookup(ctx context.Context, key Key) (*Entry, error) {
	h.provider.mu.RLock()
	ns, ok := h.provider.namespaces[h.namespace]
	var data []byte
	if ok {
		data, ok = ns[key.String()]
	}
	h.provider.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("memory", "lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	CacheHits.WithLabelValues("memory").Inc()
	return &entry, nil
}

func (h *memoryHandle) Write(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("memory", "write").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	h.provider.mu.Lock()
	defer h.provider.mu.Unlock()
	ns, ok := h.provider.namespaces[h.namespace]
	if !ok {
		// Namespace was deleted after this handle was opened; a write to a
		// retired namespace must not resurrect it.
		return fmt.Errorf("namespace %q no longer exists", h.namespace)
	}
	ns[key.String()] = data
	CacheWrittenBytes.WithLabelValues("memory").Add(float64(len(data)))
	return nil
}

func (h *memoryHandle) Keys(ctx context.Context) ([]Key, error) {
	h.provider.mu.RLock()
	defer h.provider.mu.RUnlock()
	ns := h.provider.namespaces[h.namespace]
	out := make([]Key, 0, len(ns))
	for k := range ns {
		out = append(out, ParseKey(k))
	}
	return out, nil
}
