package cache

import (
	"context"
	"errors"
	"path"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// DatabaseStore implements the cache Store interface using the primary SQL
// database. It keeps the cache layer functional on deployments without Redis.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Get retrieves a value by key, respecting expiry.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set upserts the value for a given key with expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	expiry := time.Time{}
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
}

// SetForever upserts the value for a given key without expiry.
func (s *DatabaseStore) SetForever(ctx context.Context, key string, value []byte) error {
	return s.Set(ctx, key, value, 0)
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	if len(keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.CacheEntry{}).Error
}

// Increment atomically adds delta to a counter stored under key.
func (s *DatabaseStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if s == nil {
		return 0, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CacheEntry
		// Acquire row-level lock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&entry, "key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count = delta
			entry = models.CacheEntry{
				Key:   key,
				Value: []byte(strconv.FormatInt(count, 10)),
			}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(now) {
			count = delta
			entry.Value = []byte(strconv.FormatInt(count, 10))
			entry.ExpiresAt = time.Time{}
		} else {
			current, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count = current + delta
			entry.Value = []byte(strconv.FormatInt(count, 10))
		}

		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Expire updates the remaining time-to-live of an existing key.
func (s *DatabaseStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if s == nil {
		return errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}

	return s.db.WithContext(ctx).Model(&models.CacheEntry{}).
		Where("key = ?", key).
		Update("expires_at", time.Now().Add(ttl)).Error
}

// Keys resolves every live key matching a glob pattern. Patterns only contain
// '*' and '?' wildcards, which path.Match supports; keys never contain '/'.
func (s *DatabaseStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if s == nil {
		return nil, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var stored []string
	if err := s.db.WithContext(ctx).Model(&models.CacheEntry{}).
		Pluck("key", &stored).Error; err != nil {
		return nil, err
	}

	matched := make([]string, 0, len(stored))
	for _, key := range stored {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, key)
		}
	}
	return matched, nil
}
