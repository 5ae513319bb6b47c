package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

// SocialService owns the follow graph: the follow toggle and the cached
// follower/following list reads.
type SocialService struct {
	db          *gorm.DB
	store       cache.Store
	keys        cache.Keyspace
	invalidator *cache.Invalidator
	socialTTL   time.Duration
}

// NewSocialService constructs a social-graph service.
func NewSocialService(db *gorm.DB, store cache.Store, keys cache.Keyspace, invalidator *cache.Invalidator, socialTTL time.Duration) (*SocialService, error) {
	if db == nil {
		return nil, errors.New("social service: db is required")
	}
	if invalidator == nil {
		return nil, errors.New("social service: invalidator is required")
	}
	if socialTTL <= 0 {
		socialTTL = 5 * time.Minute
	}
	return &SocialService{
		db:          db,
		store:       store,
		keys:        keys,
		invalidator: invalidator,
		socialTTL:   socialTTL,
	}, nil
}

// FollowState reports the relation after a toggle.
type FollowState struct {
	TargetID  string `json:"target_id"`
	Following bool   `json:"following"`
}

// ToggleFollow flips the follower->target edge. Creating the edge snapshots
// the follower's current profile onto it; both branches run in one
// transaction together with the counter updates. Afterwards the target's
// follower-list domain and the follower's following-list domain are both
// evicted; the two domains are never conflated.
func (s *SocialService) ToggleFollow(ctx context.Context, followerID, targetID string) (FollowState, error) {
	ctx = ensuredContext(ctx)

	if followerID == targetID {
		return FollowState{}, appErrors.NewValidationFailed("you cannot follow yourself", "target_id")
	}

	state := FollowState{TargetID: targetID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Profile
		if err := tx.Take(&target, "id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErrors.ErrNotFound
			}
			return storeError(err)
		}

		var edge models.FollowEdge
		err := tx.Take(&edge, "follower_id = ? AND followed_id = ?", followerID, targetID).Error
		switch {
		case err == nil:
			if err := tx.Delete(&edge).Error; err != nil {
				return storeError(err)
			}
			state.Following = false
			return s.adjustCounters(tx, followerID, targetID, -1)
		case errors.Is(err, gorm.ErrRecordNotFound):
			var follower models.Profile
			if err := tx.Take(&follower, "id = ?", followerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return appErrors.ErrNotFound
				}
				return storeError(err)
			}

			edge = models.FollowEdge{
				FollowerID:      followerID,
				FollowedID:      targetID,
				FollowerName:    follower.DisplayName,
				FollowerHandle:  follower.Handle,
				FollowerPicture: follower.PictureURL,
			}
			if err := tx.Create(&edge).Error; err != nil {
				if isUniqueConstraintError(err) {
					// Concurrent follow from the same user; treat as already following.
					return appErrors.ErrConflict
				}
				return storeError(err)
			}
			state.Following = true
			return s.adjustCounters(tx, followerID, targetID, 1)
		default:
			return storeError(err)
		}
	})
	if err != nil {
		return FollowState{}, err
	}

	s.invalidator.InvalidateFollowers(ctx, targetID)
	s.invalidator.InvalidateFollowing(ctx, followerID)
	return state, nil
}

func (s *SocialService) adjustCounters(tx *gorm.DB, followerID, targetID string, delta int64) error {
	if err := tx.Model(&models.Profile{}).
		Where("id = ?", targetID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + ?", delta)).Error; err != nil {
		return storeError(err)
	}
	if err := tx.Model(&models.Profile{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return storeError(err)
	}
	return nil
}

// FollowerEntry is one row of a follower list, rendered from the snapshot
// captured when the follow was created.
type FollowerEntry struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Handle     string    `json:"handle"`
	PictureURL string    `json:"picture_url"`
	FollowedAt time.Time `json:"followed_at"`
}

// Followers lists the users following userID, cache-aside with a medium TTL
// since the graph changes less often than feed content.
func (s *SocialService) Followers(ctx context.Context, userID string) ([]FollowerEntry, error) {
	ctx = ensuredContext(ctx)

	return cache.GetOrCompute(ctx, s.store, cache.DomainFollowers, s.keys.Followers(userID), s.socialTTL, func(ctx context.Context) ([]FollowerEntry, error) {
		var edges []models.FollowEdge
		if err := s.db.WithContext(ctx).
			Where("followed_id = ?", userID).
			Order("created_at DESC").
			Find(&edges).Error; err != nil {
			return nil, storeError(err)
		}

		entries := make([]FollowerEntry, 0, len(edges))
		for _, edge := range edges {
			entries = append(entries, FollowerEntry{
				UserID:     edge.FollowerID,
				Name:       edge.FollowerName,
				Handle:     edge.FollowerHandle,
				PictureURL: edge.FollowerPicture,
				FollowedAt: edge.CreatedAt,
			})
		}
		return entries, nil
	})
}

// Following lists the users userID follows. The followed side carries no
// snapshot on the edge, so current profiles are resolved in one batched query.
func (s *SocialService) Following(ctx context.Context, userID string) ([]FollowerEntry, error) {
	ctx = ensuredContext(ctx)

	return cache.GetOrCompute(ctx, s.store, cache.DomainFollowing, s.keys.Following(userID), s.socialTTL, func(ctx context.Context) ([]FollowerEntry, error) {
		var edges []models.FollowEdge
		if err := s.db.WithContext(ctx).
			Where("follower_id = ?", userID).
			Order("created_at DESC").
			Find(&edges).Error; err != nil {
			return nil, storeError(err)
		}
		if len(edges) == 0 {
			return []FollowerEntry{}, nil
		}

		ids := make([]string, 0, len(edges))
		for _, edge := range edges {
			ids = append(ids, edge.FollowedID)
		}

		var profiles []models.Profile
		if err := s.db.WithContext(ctx).
			Where("id IN ?", ids).
			Find(&profiles).Error; err != nil {
			return nil, storeError(err)
		}

		byID := make(map[string]models.Profile, len(profiles))
		for _, profile := range profiles {
			byID[profile.ID] = profile
		}

		entries := make([]FollowerEntry, 0, len(edges))
		for _, edge := range edges {
			profile, ok := byID[edge.FollowedID]
			if !ok {
				continue // followed profile deleted since
			}
			entries = append(entries, FollowerEntry{
				UserID:     profile.ID,
				Name:       profile.DisplayName,
				Handle:     profile.Handle,
				PictureURL: profile.PictureURL,
				FollowedAt: edge.CreatedAt,
			})
		}
		return entries, nil
	})
}
