package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/pkg/logger"
)

const (
	defaultSweepSpec  = "@every 5m"
	defaultOrphanSpec = "@daily"
)

// Cleaner coordinates background maintenance: purging expired rows from the
// database cache table and removing like edges whose post has been deleted.
type Cleaner struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	sweepSchedule  string
	orphanSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSweepSchedule overrides the cron specification for the cache sweep.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// WithOrphanSchedule overrides the cron specification for orphaned-like removal.
func WithOrphanSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.orphanSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:             db,
		now:            time.Now,
		sweepSchedule:  defaultSweepSpec,
		orphanSchedule: defaultOrphanSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the maintenance jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
		if _, err := SweepExpiredEntries(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("cache sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := c.cron.AddFunc(c.orphanSchedule, func() {
		if _, err := RemoveOrphanedLikes(context.Background(), c.db); err != nil {
			c.log.Warn("orphaned like removal failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every maintenance routine sequentially. Primarily used in
// tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.db == nil {
		return nil
	}

	var errs error
	if _, err := SweepExpiredEntries(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := RemoveOrphanedLikes(ctx, c.db); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// SweepExpiredEntries removes cache rows whose TTL has lapsed. Entries with a
// zero expires_at never expire and are left alone.
func SweepExpiredEntries(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("sweep cache: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("expires_at <> ? AND expires_at <= ?", time.Time{}, now).
		Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RemoveOrphanedLikes deletes like edges pointing at posts that no longer
// exist. Post deletion does not cascade through the like table, so the edges
// are reaped here instead of inline on the write path.
func RemoveOrphanedLikes(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, errors.New("remove orphaned likes: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("post_id NOT IN (?)", db.Model(&models.Post{}).Select("id")).
		Delete(&models.LikeEdge{})
	if result.Error != nil {
		return 0, fmt.Errorf("remove orphaned likes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
