// Package kvstore is the key/value store behind settings and rate limiting.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a key/value store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value. A ttl <= 0 keeps the key until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr increments a counter. The first increment of a key starts its
	// ttl; the returned duration is the time left before it resets.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
	Close() error
}
