// Package store keeps API entities that pages read repeatedly. Every store
// memoizes by request parameters; pass force to refetch.
package store

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/memo"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Getter is the read side of the API client.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*requester.Response, error)
}

// Record is one schemaless API entity.
type Record map[string]any

// String returns field as a string, or "" when it is missing.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ID returns the numeric id field.
func (r Record) ID() int64 {
	if v, ok := r["id"].(float64); ok {
		return int64(v)
	}
	return 0
}

// sortBy returns a copy of records ordered by field. Numbers sort
// numerically, everything else as text.
func sortBy(records []Record, field string, desc bool) []Record {
	out := append([]Record{}, records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		an, aNum := a[field].(float64)
		bn, bNum := b[field].(float64)
		if aNum && bNum {
			return an < bn
		}
		return a.String(field) < b.String(field)
	})
	return out
}

// Cache decides where store entries live.
type Cache struct {
	rc     redis.UniversalClient
	prefix string
}

// NewCache connects to redis when cfg selects it. The memory backend needs
// no connection.
func NewCache(cfg *config.CacheConfig) (*Cache, error) {
	c := &Cache{prefix: cfg.Prefix}
	if cfg.Backend != config.CacheBackendRedis {
		return c, nil
	}
	c.rc = redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	logger.Info("using redis store cache",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.String("prefix", cfg.Prefix),
	)
	return c, nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rc redis.UniversalClient, prefix string) *Cache {
	return &Cache{rc: rc, prefix: prefix}
}

// Ping checks the redis connection, if any.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rc == nil {
		return nil
	}
	if err := c.rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the redis connection, if any.
func (c *Cache) Close() error {
	if c == nil || c.rc == nil {
		return nil
	}
	return c.rc.Close()
}

func newMemo[V any](c *Cache, name string) *memo.Memo[V] {
	if c == nil || c.rc == nil {
		return memo.NewMemory[V](name)
	}
	prefix := name
	if c.prefix != "" {
		prefix = c.prefix + ":" + name
	}
	return memo.New[V](name, memo.NewRedisBackend[V](c.rc, prefix))
}

func fetchJSON[V any](api Getter, path string, query url.Values) memo.FetchFunc[V] {
	return func(ctx context.Context) (V, error) {
		var v V
		resp, err := api.Get(ctx, path, query)
		if err != nil {
			return v, err
		}
		if err := resp.Decode(&v); err != nil {
			return v, err
		}
		return v, nil
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// optionalID renders a nullable id the way the API expects: absent when nil.
func optionalID(q url.Values, name string, id *int64) {
	if id != nil {
		q.Set(name, idString(*id))
	}
}
