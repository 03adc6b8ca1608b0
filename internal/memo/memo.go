package memo

import (
	"context"
	"fmt"

	"github.com/jobvyne/navguard/internal/logger"
	"go.uber.org/zap"
)

// Backend stores memo entries.
type Backend[V any] interface {
	Load(ctx context.Context, key string) (V, bool, error)
	Store(ctx context.Context, key string, v V) error
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context) (int, error)
}

// FetchFunc loads a value from the API.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Memo is a keyed cache of fetched values. Concurrent Set calls for the
// same missing key may both fetch; de-duplication happens in the HTTP layer.
type Memo[V any] struct {
	name    string
	backend Backend[V]
}

// New creates a memo named name on backend. The name only shows up in logs.
func New[V any](name string, backend Backend[V]) *Memo[V] {
	return &Memo[V]{name: name, backend: backend}
}

// NewMemory creates a memo on a fresh in-process backend.
func NewMemory[V any](name string) *Memo[V] {
	return New[V](name, NewMemoryBackend[V]())
}

// Set fetches and stores the value for key unless it is already present and
// force is false. A failed fetch leaves the entry as it was.
func (m *Memo[V]) Set(ctx context.Context, key Key, force bool, fetch FetchFunc[V]) error {
	if !force {
		_, ok, err := m.backend.Load(ctx, key.String())
		if err != nil {
			logger.Warn("memo lookup failed, refetching",
				zap.String("memo", m.name),
				zap.String("key", key.String()),
				zap.Error(err),
			)
		}
		if ok {
			return nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("%s %s: %w", m.name, key, err)
	}
	if err := m.backend.Store(ctx, key.String(), v); err != nil {
		return fmt.Errorf("%s %s: store: %w", m.name, key, err)
	}
	logger.Debug("memo entry stored", zap.String("memo", m.name), zap.String("key", key.String()))
	return nil
}

// Get returns the entry for key. Backend errors read as a miss.
func (m *Memo[V]) Get(ctx context.Context, key Key) (V, bool) {
	v, ok, err := m.backend.Load(ctx, key.String())
	if err != nil {
		logger.Warn("memo read failed",
			zap.String("memo", m.name),
			zap.String("key", key.String()),
			zap.Error(err),
		)
		var zero V
		return zero, false
	}
	return v, ok
}

// GetOr returns the entry for key, or def when it is missing.
func (m *Memo[V]) GetOr(ctx context.Context, key Key, def V) V {
	if v, ok := m.Get(ctx, key); ok {
		return v
	}
	return def
}

// Delete drops the entry for key.
func (m *Memo[V]) Delete(ctx context.Context, key Key) error {
	return m.backend.Delete(ctx, key.String())
}

// Len returns the number of entries.
func (m *Memo[V]) Len(ctx context.Context) (int, error) {
	return m.backend.Len(ctx)
}
