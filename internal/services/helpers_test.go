package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/database/testutil"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

type fixture struct {
	db    *gorm.DB
	store *cache.MemoryStore
	keys  cache.Keyspace
	inv   *cache.Invalidator
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	store := cache.NewMemoryStore()
	keys := cache.NewKeyspace("pulsefeed", "test")
	return fixture{
		db:    db,
		store: store,
		keys:  keys,
		inv:   cache.NewInvalidator(store, keys),
	}
}

func seedProfile(t *testing.T, db *gorm.DB, name string) models.Profile {
	t.Helper()

	profile := models.Profile{
		ID:          uuid.NewString(),
		DisplayName: name,
		Handle:      NormalizeHandle(name),
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func seedPost(t *testing.T, db *gorm.DB, author models.Profile, title string, createdAt time.Time) models.Post {
	t.Helper()

	post := models.Post{
		Title:         title,
		Content:       "content of " + title,
		AuthorID:      author.ID,
		AuthorName:    author.DisplayName,
		AuthorPicture: author.PictureURL,
		AuthorHandle:  author.Handle,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}
