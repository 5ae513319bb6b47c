package cache

import (
	"context"
	"time"
)

// Store represents the shared key/value cache interface used across the
// application. Every operation is best-effort: callers treat a Store error as
// a cache miss and fall through to the source of truth.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetForever(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}
