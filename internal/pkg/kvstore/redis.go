package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server. Keys are namespaced by prefix.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	k := r.prefix + key
	count, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr: %w", err)
	}
	if ttl <= 0 {
		return count, 0, nil
	}
	if count == 1 {
		if err := r.rdb.PExpire(ctx, k, ttl).Err(); err != nil {
			return count, 0, fmt.Errorf("redis pexpire: %w", err)
		}
		return count, ttl, nil
	}
	left, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return count, 0, fmt.Errorf("redis pttl: %w", err)
	}
	// A counter that lost its expiry would never reset.
	if left < 0 {
		if err := r.rdb.PExpire(ctx, k, ttl).Err(); err != nil {
			return count, 0, fmt.Errorf("redis pexpire: %w", err)
		}
		left = ttl
	}
	return count, left, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
