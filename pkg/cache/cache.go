package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Cache is the shared key/value store used for read-through caching. Values
// are opaque bytes; a missing key is never an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr increments key and, when the increment created it, applies ttl in
	// the same atomic step.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// GetOrLoad reads a JSON value through the cache. Cache failures degrade to a
// load from the source and are logged, never returned.
func GetOrLoad[T any](ctx context.Context, log *slog.Logger, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	raw, ok, err := c.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("cache read failed", "key", key, "err", err)
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Warn("cache entry undecodable, reloading", "key", key)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		if err := c.Set(ctx, key, b, ttl); err != nil {
			log.Warn("cache write failed", "key", key, "err", err)
		}
	}
	return v, nil
}
