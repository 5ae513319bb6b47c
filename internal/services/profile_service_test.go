package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

func newProfileService(t *testing.T, fx fixture) *ProfileService {
	t.Helper()

	svc, err := NewProfileService(fx.db, fx.store, fx.keys, fx.inv, ProfileServiceConfig{})
	require.NoError(t, err)
	return svc
}

func strPtr(s string) *string { return &s }

func TestProfileGet(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)

	created := seedProfile(t, fx.db, "Maria Lopez")

	profile, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Maria Lopez", profile.DisplayName)
	require.Equal(t, "maria lopez", profile.Handle)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestProfileUpdateFields(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	created := seedProfile(t, fx.db, "Maria Lopez")

	// Push the last edit outside the window so the update is allowed.
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	updated, err := svc.Update(ctx, created.ID, ProfileUpdate{
		Bio:         strPtr("  hello there  "),
		SocialLinks: map[string]interface{}{"site": "https://example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", updated.Bio)
	require.Equal(t, "https://example.com", updated.SocialLinks["site"])
	// Untouched fields survive.
	require.Equal(t, "Maria Lopez", updated.DisplayName)
}

func TestProfileUpdatePreservesConcurrentCounters(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	created := seedProfile(t, fx.db, "Maria Lopez")

	// The clock hook fires after the profile read and before the write,
	// exactly the gap where a concurrent follow toggle can commit.
	svc.now = func() time.Time {
		require.NoError(t, fx.db.Model(&models.Profile{}).
			Where("id = ?", created.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + ?", 1)).Error)
		return time.Now().Add(8 * 24 * time.Hour)
	}

	updated, err := svc.Update(ctx, created.ID, ProfileUpdate{Bio: strPtr("new bio")})
	require.NoError(t, err)
	require.Equal(t, "new bio", updated.Bio)
	require.Equal(t, int64(1), updated.FollowerCount,
		"an edit writes only its own columns and must not revert the follow")
}

func TestProfileUpdateEmptyRejected(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)

	created := seedProfile(t, fx.db, "Maria Lopez")

	_, err := svc.Update(context.Background(), created.ID, ProfileUpdate{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidationFailed.Code, appErrors.FromError(err).Code)
}

func TestProfileUpdateCooldown(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	created := seedProfile(t, fx.db, "Maria Lopez")

	// Inside the seven-day window the edit is rejected with the remaining wait.
	_, err := svc.Update(ctx, created.ID, ProfileUpdate{Bio: strPtr("too soon")})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrCooldownActive.Code, appErr.Code)
	require.Greater(t, appErr.RetryAfter, time.Duration(0))

	svc.now = func() time.Time { return time.Now().Add(svc.editWindow + time.Minute) }

	_, err = svc.Update(ctx, created.ID, ProfileUpdate{Bio: strPtr("long enough")})
	require.NoError(t, err)
}

func TestProfileUpdateHandleCollision(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	seedProfile(t, fx.db, "José Álvarez")
	victim := seedProfile(t, fx.db, "Other Person")

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	// "jose.alvarez" normalizes onto the existing handle.
	_, err := svc.Update(ctx, victim.ID, ProfileUpdate{DisplayName: strPtr("jose.alvarez")})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Nothing was persisted.
	reloaded, err := svc.Get(ctx, victim.ID)
	require.NoError(t, err)
	require.Equal(t, "Other Person", reloaded.DisplayName)
}

func TestProfileUpdateBioTooLong(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)

	created := seedProfile(t, fx.db, "Maria Lopez")
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	long := make([]byte, maxBioLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.Update(context.Background(), created.ID, ProfileUpdate{Bio: strPtr(string(long))})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidationFailed.Code, appErrors.FromError(err).Code)
}

func TestSearchUsers(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	seedProfile(t, fx.db, "José Álvarez")
	seedProfile(t, fx.db, "Maria Lopez")

	// Diacritics in the query fold onto the stored handle.
	results, err := svc.SearchUsers(ctx, "Josè")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "jose alvarez", results[0].Handle)

	results, err = svc.SearchUsers(ctx, "lopez")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = svc.SearchUsers(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchUsersCachedUntilProfileEdit(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	seedProfile(t, fx.db, "Maria Lopez")

	results, err := svc.SearchUsers(ctx, "maria")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A profile created behind the cache is invisible for the cached query.
	seedProfile(t, fx.db, "Maria Santos")

	results, err = svc.SearchUsers(ctx, "maria")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Any profile edit through the service evicts the whole search domain.
	editor := seedProfile(t, fx.db, "Editor")
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = svc.Update(ctx, editor.ID, ProfileUpdate{Bio: strPtr("hi")})
	require.NoError(t, err)

	results, err = svc.SearchUsers(ctx, "maria")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRandomUsers(t *testing.T) {
	fx := newFixture(t)
	svc := newProfileService(t, fx)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three", "Four"} {
		seedProfile(t, fx.db, name)
	}

	results, err := svc.RandomUsers(ctx, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Limits are clamped rather than rejected.
	results, err = svc.RandomUsers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 4)

	results, err = svc.RandomUsers(ctx, maxRandomSize+100)
	require.NoError(t, err)
	require.Len(t, results, 4)
}
