package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

func newSocialService(t *testing.T, fx fixture) *SocialService {
	t.Helper()

	svc, err := NewSocialService(fx.db, fx.store, fx.keys, fx.inv, 0)
	require.NoError(t, err)
	return svc
}

func TestToggleFollowLifecycle(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)
	ctx := context.Background()

	follower := seedProfile(t, fx.db, "Follower")
	target := seedProfile(t, fx.db, "Target")

	state, err := svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)
	require.True(t, state.Following)
	require.Equal(t, target.ID, state.TargetID)

	var reloaded models.Profile
	require.NoError(t, fx.db.Take(&reloaded, "id = ?", target.ID).Error)
	require.Equal(t, int64(1), reloaded.FollowerCount)
	reloaded = models.Profile{}
	require.NoError(t, fx.db.Take(&reloaded, "id = ?", follower.ID).Error)
	require.Equal(t, int64(1), reloaded.FollowingCount)

	state, err = svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)
	require.False(t, state.Following)

	reloaded = models.Profile{}
	require.NoError(t, fx.db.Take(&reloaded, "id = ?", target.ID).Error)
	require.Equal(t, int64(0), reloaded.FollowerCount)
}

func TestToggleFollowSelfRejected(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)

	user := seedProfile(t, fx.db, "Loner")

	_, err := svc.ToggleFollow(context.Background(), user.ID, user.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidationFailed.Code, appErrors.FromError(err).Code)

	var edges int64
	require.NoError(t, fx.db.Model(&models.FollowEdge{}).Count(&edges).Error)
	require.Zero(t, edges)
}

func TestToggleFollowMissingTarget(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)

	follower := seedProfile(t, fx.db, "Follower")

	_, err := svc.ToggleFollow(context.Background(), follower.ID, "no-such-user")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFollowersRenderSnapshot(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)
	ctx := context.Background()

	follower := seedProfile(t, fx.db, "Snap Shot")
	target := seedProfile(t, fx.db, "Target")

	_, err := svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)

	entries, err := svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, follower.ID, entries[0].UserID)
	require.Equal(t, "Snap Shot", entries[0].Name)
	require.Equal(t, "snap shot", entries[0].Handle)

	// A later rename does not rewrite the captured snapshot.
	follower.DisplayName = "Renamed"
	follower.Handle = NormalizeHandle("Renamed")
	require.NoError(t, fx.db.Save(&follower).Error)
	fx.inv.InvalidateFollowers(ctx, target.ID)

	entries, err = svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, "Snap Shot", entries[0].Name)
}

func TestFollowersListCaching(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)
	ctx := context.Background()

	follower := seedProfile(t, fx.db, "Follower")
	second := seedProfile(t, fx.db, "Second")
	target := seedProfile(t, fx.db, "Target")

	_, err := svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)

	entries, err := svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// A follow through the service evicts the target's cached list.
	_, err = svc.ToggleFollow(ctx, second.ID, target.ID)
	require.NoError(t, err)

	entries, err = svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestFollowingResolvesCurrentProfiles(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)
	ctx := context.Background()

	follower := seedProfile(t, fx.db, "Follower")
	target := seedProfile(t, fx.db, "Original Target")

	_, err := svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)

	// The following list always shows the followed side's current profile.
	target.DisplayName = "Renamed Target"
	target.Handle = NormalizeHandle("Renamed Target")
	require.NoError(t, fx.db.Save(&target).Error)
	fx.inv.InvalidateFollowing(ctx, follower.ID)

	entries, err := svc.Following(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Renamed Target", entries[0].Name)
}

func TestFollowEvictsBothDomains(t *testing.T) {
	fx := newFixture(t)
	svc := newSocialService(t, fx)
	ctx := context.Background()

	follower := seedProfile(t, fx.db, "Follower")
	target := seedProfile(t, fx.db, "Target")
	bystander := seedProfile(t, fx.db, "Bystander")

	// Warm caches for an unrelated user; they must survive the toggle.
	_, err := svc.Followers(ctx, bystander.ID)
	require.NoError(t, err)
	_, err = svc.Following(ctx, bystander.ID)
	require.NoError(t, err)

	// Warm the two lists the toggle must evict.
	_, err = svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	_, err = svc.Following(ctx, follower.ID)
	require.NoError(t, err)
	require.Equal(t, 4, fx.store.Len())

	_, err = svc.ToggleFollow(ctx, follower.ID, target.ID)
	require.NoError(t, err)

	// Only the bystander's entries remain.
	require.Equal(t, 2, fx.store.Len())

	followers, err := svc.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)

	following, err := svc.Following(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
}
