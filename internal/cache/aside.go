package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pulsefeed/pulsefeed/pkg/logger"
	"github.com/pulsefeed/pulsefeed/pkg/metrics"
)

// GetOrCompute implements the cache-aside read path: return the cached value
// under key if it is present and decodes cleanly, otherwise invoke compute
// against the source of truth, store the result with ttl (no expiry when
// ttl <= 0) and return it.
//
// Store failures and corrupt entries are local concerns: they are logged,
// counted and treated as a miss, never surfaced to the caller. Concurrent
// misses on the same key may all invoke compute; compute is idempotent and the
// duplicate cost is bounded, so no single-flight coordination is applied.
func GetOrCompute[T any](ctx context.Context, store Store, domain, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	log := logger.WithModule("cache")

	var zero T
	if store != nil {
		raw, found, err := store.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(domain, "error").Inc()
			log.Warn("cache read failed, falling through", zap.String("key", key), zap.Error(err))
		case found:
			var cached T
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				metrics.CacheLookups.WithLabelValues(domain, "hit").Inc()
				return cached, nil
			}
			// A corrupt entry is evicted and recomputed, not propagated.
			metrics.CacheLookups.WithLabelValues(domain, "corrupt").Inc()
			log.Warn("corrupt cache entry, recomputing", zap.String("key", key))
			if delErr := store.Delete(ctx, key); delErr != nil {
				log.Debug("failed to evict corrupt entry", zap.String("key", key), zap.Error(delErr))
			}
		default:
			metrics.CacheLookups.WithLabelValues(domain, "miss").Inc()
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if store != nil {
		if raw, jsonErr := json.Marshal(value); jsonErr == nil {
			var setErr error
			if ttl > 0 {
				setErr = store.Set(ctx, key, raw, ttl)
			} else {
				setErr = store.SetForever(ctx, key, raw)
			}
			if setErr != nil {
				log.Warn("cache write failed", zap.String("key", key), zap.Error(setErr))
			}
		} else {
			log.Warn("cache value not serializable", zap.String("key", key), zap.Error(jsonErr))
		}
	}

	return value, nil
}
