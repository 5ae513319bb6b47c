package cache

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pulsefeed/pulsefeed/pkg/logger"
	"github.com/pulsefeed/pulsefeed/pkg/metrics"
)

// deleteBatchSize bounds a single DEL command.
const deleteBatchSize = 128

// Invalidator performs pattern-based bulk eviction. Writes call it
// synchronously after commit; the staleness window is the gap between the
// commit and this call on the same request path.
type Invalidator struct {
	store Store
	keys  Keyspace
	log   *zap.Logger
}

// NewInvalidator wires an Invalidator over a Store and Keyspace.
func NewInvalidator(store Store, keys Keyspace) *Invalidator {
	return &Invalidator{
		store: store,
		keys:  keys,
		log:   logger.WithModule("cache.invalidate"),
	}
}

// InvalidatePattern evicts every key matching pattern. Eviction is
// best-effort: failures are logged and never fail the triggering write.
func (i *Invalidator) InvalidatePattern(ctx context.Context, domain, pattern string) {
	if i == nil || i.store == nil {
		return
	}

	matched, err := i.store.Keys(ctx, pattern)
	if err != nil {
		i.log.Warn("pattern scan failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(matched) == 0 {
		return
	}

	var errs error
	for start := 0; start < len(matched); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(matched) {
			end = len(matched)
		}
		errs = multierr.Append(errs, i.store.Delete(ctx, matched[start:end]...))
	}

	metrics.CacheInvalidations.WithLabelValues(domain).Inc()
	if errs != nil {
		i.log.Warn("partial eviction",
			zap.String("pattern", pattern),
			zap.Int("keys", len(matched)),
			zap.Error(errs),
		)
		return
	}

	i.log.Debug("evicted", zap.String("pattern", pattern), zap.Int("keys", len(matched)))
}

// InvalidatePosts drops every cached feed page.
func (i *Invalidator) InvalidatePosts(ctx context.Context) {
	i.InvalidatePattern(ctx, DomainPosts, i.keys.PostsPattern())
}

// InvalidateFollowers drops a user's cached follower list.
func (i *Invalidator) InvalidateFollowers(ctx context.Context, userID string) {
	i.InvalidatePattern(ctx, DomainFollowers, i.keys.FollowersPattern(userID))
}

// InvalidateFollowing drops a user's cached following list.
func (i *Invalidator) InvalidateFollowing(ctx context.Context, userID string) {
	i.InvalidatePattern(ctx, DomainFollowing, i.keys.FollowingPattern(userID))
}

// InvalidateUserSearch drops every cached user-search result.
func (i *Invalidator) InvalidateUserSearch(ctx context.Context) {
	i.InvalidatePattern(ctx, DomainUserSearch, i.keys.UserSearchPattern())
}
