package middleware

import (
	"context"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/cache"
)

// RateStore counts admission units per client across application instances.
// Increment adds cost units to the counter stored under key and reports the
// running total for the current window plus a retry hint for callers that
// exceed their budget.
type RateStore interface {
	Increment(ctx context.Context, key string, cost int64, window time.Duration) (int64, time.Duration, error)
}

type storeRateStore struct {
	store cache.Store
}

// NewStoreRateStore adapts a cache.Store (Redis or the database fallback)
// into a RateStore so admission counters are shared by every instance that
// shares the store. Returns nil when no store is available, which keeps the
// limiter on its in-process buckets.
func NewStoreRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &storeRateStore{store: store}
}

// Increment counts into a fixed window: the first hit of a window sets the
// key's expiry, and the counter vanishes with it. The backing stores do not
// expose the remaining TTL, so the full window is reported as the retry hint.
func (s *storeRateStore) Increment(ctx context.Context, key string, cost int64, window time.Duration) (int64, time.Duration, error) {
	if cost < 1 {
		cost = 1
	}

	count, err := s.store.Increment(ctx, key, cost)
	if err != nil {
		return 0, 0, err
	}
	if count == cost {
		if err := s.store.Expire(ctx, key, window); err != nil {
			return 0, 0, err
		}
	}
	return count, window, nil
}
