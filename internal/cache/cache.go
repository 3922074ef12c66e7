// Package cache holds the optional listing cache.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// IndexKey is the Redis hash holding cached index pages.
const IndexKey = "index_page"

// PageCache stores rendered-listing data by field. Failures are logged and
// treated as misses so the cache can never fail a request.
type PageCache interface {
	Get(ctx context.Context, field string) ([]byte, bool)
	Set(ctx context.Context, field string, value []byte)
	Invalidate(ctx context.Context)
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoopCache) Set(context.Context, string, []byte) {}
func (NoopCache) Invalidate(context.Context) {}

// RedisCache keeps every field of one listing in a single Redis hash, so the
// whole listing expires and is invalidated at once.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: key, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, field string) ([]byte, bool) {
	value, err := r.client.HGet(ctx, r.key, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", r.key, "field", field, "error", err)
		}
		return nil, false
	}
	return value, true
}

func (r *RedisCache) Set(ctx context.Context, field string, value []byte) {
	if err := r.client.HSet(ctx, r.key, field, value).Err(); err != nil {
		slog.Warn("cache write failed", "key", r.key, "field", field, "error", err)
		return
	}
	// the hash expires as a whole, counted from its first field
	ttl, err := r.client.TTL(ctx, r.key).Result()
	if err == nil && ttl < 0 {
		err = r.client.Expire(ctx, r.key, r.ttl).Err()
	}
	if err != nil {
		slog.Warn("cache expiry failed", "key", r.key, "error", err)
	}
}

func (r *RedisCache) Invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		slog.Warn("cache invalidation failed", "key", r.key, "error", err)
	}
}
