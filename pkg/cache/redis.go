package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

var incrScript = redis.NewScript(`
local v = redis.call("INCR", KEYS[1])
if v == 1 and tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return v
`)

type Redis struct {
	rdb      redis.UniversalClient
	scanSize int64
}

func NewRedis(rdb redis.UniversalClient) *Redis {
	return &Redis{rdb: rdb, scanSize: 200}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, shared.Infrastructure("cache.get", err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return shared.Infrastructure("cache.set", r.rdb.Set(ctx, key, value, ttl).Err())
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return shared.Infrastructure("cache.del", r.rdb.Del(ctx, keys...).Err())
}

func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrScript.Run(ctx, r.rdb, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, shared.Infrastructure("cache.incr", err)
	}
	return n, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, shared.Infrastructure("cache.exists", err)
	}
	return n > 0, nil
}

// Keys walks the keyspace with SCAN; it is meant for tooling, not hot paths.
func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := r.rdb.Scan(ctx, 0, pattern, r.scanSize).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, shared.Infrastructure("cache.keys", err)
	}
	return out, nil
}
