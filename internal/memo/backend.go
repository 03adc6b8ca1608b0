package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryBackend keeps entries in process memory for its own lifetime.
type MemoryBackend[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend[V any]() *MemoryBackend[V] {
	return &MemoryBackend[V]{entries: make(map[string]V)}
}

func (b *MemoryBackend[V]) Load(_ context.Context, key string) (V, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[key]
	return v, ok, nil
}

func (b *MemoryBackend[V]) Store(_ context.Context, key string, v V) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = v
	return nil
}

func (b *MemoryBackend[V]) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

func (b *MemoryBackend[V]) Len(context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries), nil
}

// RedisBackend shares entries between service replicas. Values are stored
// as JSON under "<prefix>:<key>" without expiry.
type RedisBackend[V any] struct {
	rc     redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a backend on rc. prefix must be unique per memo.
func NewRedisBackend[V any](rc redis.UniversalClient, prefix string) *RedisBackend[V] {
	return &RedisBackend[V]{rc: rc, prefix: prefix}
}

func (b *RedisBackend[V]) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

func (b *RedisBackend[V]) Load(ctx context.Context, key string) (V, bool, error) {
	var v V
	if b.rc == nil {
		return v, false, errors.New("redis client is nil")
	}
	raw, err := b.rc.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return v, false, nil
		}
		return v, false, fmt.Errorf("failed to get cache: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return v, true, nil
}

func (b *RedisBackend[V]) Store(ctx context.Context, key string, v V) error {
	if b.rc == nil {
		return errors.New("redis client is nil")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := b.rc.Set(ctx, b.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (b *RedisBackend[V]) Delete(ctx context.Context, key string) error {
	if b.rc == nil {
		return errors.New("redis client is nil")
	}
	if err := b.rc.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (b *RedisBackend[V]) Len(ctx context.Context) (int, error) {
	if b.rc == nil {
		return 0, errors.New("redis client is nil")
	}
	n := 0
	iter := b.rc.Scan(ctx, 0, b.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cache: %w", err)
	}
	return n, nil
}
