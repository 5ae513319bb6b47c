package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/database/testutil"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

func seedCacheEntry(t *testing.T, db *gorm.DB, key string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       key,
		Value:     []byte("payload"),
		ExpiresAt: expiresAt,
	}).Error)
}

func TestSweepExpiredEntries(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	now := time.Now()

	seedCacheEntry(t, db, "expired", now.Add(-time.Minute))
	seedCacheEntry(t, db, "live", now.Add(time.Hour))
	seedCacheEntry(t, db, "forever", time.Time{})

	removed, err := SweepExpiredEntries(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var keys []string
	require.NoError(t, db.Model(&models.CacheEntry{}).Order("key").Pluck("key", &keys).Error)
	require.Equal(t, []string{"forever", "live"}, keys)
}

func TestRemoveOrphanedLikes(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	author := models.Profile{ID: uuid.NewString(), DisplayName: "Author", Handle: "author"}
	require.NoError(t, db.Create(&author).Error)

	post := models.Post{Title: "t", Content: "c", AuthorID: author.ID, AuthorName: "Author"}
	require.NoError(t, db.Create(&post).Error)

	require.NoError(t, db.Create(&models.LikeEdge{UserID: author.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.LikeEdge{UserID: author.ID, PostID: post.ID + 999}).Error)

	removed, err := RemoveOrphanedLikes(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.LikeEdge
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, post.ID, remaining[0].PostID)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	now := time.Now()
	seedCacheEntry(t, db, "expired", now.Add(-time.Minute))

	cleaner := NewCleaner(db, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCleanerStartStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	cleaner := NewCleaner(db, WithSweepSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())

	stopCtx := cleaner.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
