package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// redisNamespaceSet tracks every namespace known to the provider.
	redisNamespaceSet = "worker:namespaces"

	// redisKeyPrefix prefixes all entry and index keys.
	redisKeyPrefix = "worker:ns:"
)

// RedisProvider is a Provider backed by Redis. Entries live under
// worker:ns:<namespace>:<key>; a per-namespace set indexes the keys so the
// namespace can be enumerated and deleted wholesale.
type RedisProvider struct {
	redis *redis.Client
}

// NewRedisProvider creates a Redis-backed provider.
func NewRedisProvider(redisClient *redis.Client) *RedisProvider {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisProvider{redis: redisClient}
}

func redisEntryKey(namespace string, key Key) string {
	return redisKeyPrefix + namespace + ":" + key.String()
}

func redisIndexKey(namespace string) string {
	return redisKeyPrefix + namespace + ":index"
}

// Open registers the namespace and returns a scoped handle.
func (p *RedisProvider) Open(ctx context.Context, namespace string) (Handle, error) {
	if err := p.redis.SAdd(ctx, redisNamespaceSet, namespace).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "open").Inc()
		return nil, fmt.Errorf("redis sadd: %w", err)
	}
	return &redisHandle{redis: p.redis, namespace: namespace}, nil
}

// Namespaces enumerates all registered namespaces.
func (p *RedisProvider) Namespaces(ctx context.Context) ([]string, error) {
	namespaces, err := p.redis.SMembers(ctx, redisNamespaceSet).Result()
	if err != nil {
		CacheErrors.WithLabelValues("redis", "keys").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	return namespaces, nil
}

// Delete removes a namespace, its index, and every entry it owns.
// Deleting an unknown namespace is a no-op.
func (p *RedisProvider) Delete(ctx context.Context, namespace string) error {
	keys, err := p.redis.SMembers(ctx, redisIndexKey(namespace)).Result()
	if err != nil {
		CacheErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis smembers: %w", err)
	}

	pipe := p.redis.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, redisEntryKey(namespace, ParseKey(k)))
	}
	pipe.Del(ctx, redisIndexKey(namespace))
	pipe.SRem(ctx, redisNamespaceSet, namespace)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis delete namespace: %w", err)
	}
	return nil
}

type redisHandle struct {
	redis     *redis.Client
	namespace string
}

func (h *redisHandle) Namespace() string { return h.namespace }

func (h *redisHandle) Lookup(ctx context.Context, key Key) (*Entry, error) {
	data, err := h.redis.Get(ctx, redisEntryKey(h.namespace, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("redis", "lookup").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("redis", "lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

func (h *redisHandle) Write(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("redis", "write").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Entry and index are written atomically so a torn write can never be
	// observed as a satisfied lookup.
	pipe := h.redis.TxPipeline()
	pipe.Set(ctx, redisEntryKey(h.namespace, key), data, 0)
	pipe.SAdd(ctx, redisIndexKey(h.namespace), key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("redis", "write").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrittenBytes.WithLabelValues("redis").Add(float64(len(data)))
	return nil
}

func (h *redisHandle) Keys(ctx context.Context) ([]Key, error) {
	members, err := h.redis.SMembers(ctx, redisIndexKey(h.namespace)).Result()
	if err != nil {
		CacheErrors.WithLabelValues("redis", "keys").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	keys := make([]Key, 0, len(members))
	for _, m := range members {
		keys = append(keys, ParseKey(m))
	}
	return keys, nil
}
