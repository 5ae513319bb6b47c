package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/metrics"
)

const (
	maxBioLength      = 500
	defaultRandomSize = 10
	maxRandomSize     = 50
	maxSearchResults  = 25
)

// ProfileService manages user profiles: point reads, the cooldown-guarded
// partial update, and the cached user search built on the normalized handle.
type ProfileService struct {
	db          *gorm.DB
	store       cache.Store
	keys        cache.Keyspace
	invalidator *cache.Invalidator
	editWindow  time.Duration
	searchTTL   time.Duration
	now         func() time.Time
}

// ProfileServiceConfig carries the tunables for the profile write and search paths.
type ProfileServiceConfig struct {
	EditWindow time.Duration
	SearchTTL  time.Duration
}

// NewProfileService constructs a profile service.
func NewProfileService(db *gorm.DB, store cache.Store, keys cache.Keyspace, invalidator *cache.Invalidator, cfg ProfileServiceConfig) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	if invalidator == nil {
		return nil, errors.New("profile service: invalidator is required")
	}
	if cfg.EditWindow <= 0 {
		cfg.EditWindow = 7 * 24 * time.Hour
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = time.Minute
	}
	return &ProfileService{
		db:          db,
		store:       store,
		keys:        keys,
		invalidator: invalidator,
		editWindow:  cfg.EditWindow,
		searchTTL:   cfg.SearchTTL,
		now:         time.Now,
	}, nil
}

// Get returns a profile by id.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	var profile models.Profile
	if err := s.db.WithContext(ctx).Take(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err)
	}
	return &profile, nil
}

// ProfileUpdate is a structurally validated partial update. A nil pointer
// means the field is untouched. Every recognized field is enumerated here;
// unknown fields are rejected at the decode layer rather than passed through.
type ProfileUpdate struct {
	DisplayName *string                // replaces display name; triggers handle uniqueness check
	Bio         *string                // replaces bio, max 500 chars
	BannerURL   *string                // replaces banner image URL
	PictureURL  *string                // replaces avatar URL
	SocialLinks map[string]interface{} // replaces the whole link set
	Preferences map[string]interface{} // replaces the whole preference map
}

func (u ProfileUpdate) empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.BannerURL == nil &&
		u.PictureURL == nil && u.SocialLinks == nil && u.Preferences == nil
}

// Update applies a partial profile edit for its owner. A profile may be
// mutated at most once per rolling edit window measured from updated_at; a
// rejected edit surfaces the remaining wait instead of silently dropping the
// write. A display-name change must not collide with another profile's
// normalized handle; a collision rejects the whole update before any
// persistence.
func (s *ProfileService) Update(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	if update.empty() {
		return nil, appErrors.NewValidationFailed("no recognized fields to update")
	}
	if update.Bio != nil && len(*update.Bio) > maxBioLength {
		return nil, appErrors.NewValidationFailed("bio exceeds the maximum length", "bio")
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if remaining := CooldownRemaining(s.now(), profile.UpdatedAt, s.editWindow); remaining > 0 {
		metrics.CooldownRejections.WithLabelValues("profile").Inc()
		return nil, appErrors.NewCooldownActive("profile was edited recently", remaining)
	}

	// Only the edited columns are written. Writing the whole row would race
	// with concurrent follow toggles and silently revert their counters.
	updates := map[string]interface{}{}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return nil, appErrors.NewValidationFailed("display name cannot be empty", "display_name")
		}

		handle := NormalizeHandle(name)
		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.Profile{}).
			Where("handle = ? AND id <> ?", handle, userID).
			Count(&taken).Error; err != nil {
			return nil, storeError(err)
		}
		if taken > 0 {
			return nil, appErrors.ErrConflict.WithInternal(errors.New("handle already in use"))
		}

		updates["display_name"] = name
		updates["handle"] = handle
	}

	if update.Bio != nil {
		updates["bio"] = strings.TrimSpace(*update.Bio)
	}
	if update.BannerURL != nil {
		updates["banner_url"] = strings.TrimSpace(*update.BannerURL)
	}
	if update.PictureURL != nil {
		updates["picture_url"] = strings.TrimSpace(*update.PictureURL)
	}
	if update.SocialLinks != nil {
		updates["social_links"] = datatypes.JSONMap(update.SocialLinks)
	}
	if update.Preferences != nil {
		updates["preferences"] = datatypes.JSONMap(update.Preferences)
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, appErrors.ErrConflict
		}
		return nil, storeError(err)
	}

	s.invalidator.InvalidateUserSearch(ctx)
	return s.Get(ctx, userID)
}

// SearchResult is one row of a user search.
type SearchResult struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	PictureURL  string `json:"picture_url"`
	Bio         string `json:"bio"`
}

// SearchUsers matches profiles whose normalized handle contains the
// normalized query, cache-aside under the searchUsers domain.
func (s *ProfileService) SearchUsers(ctx context.Context, query string) ([]SearchResult, error) {
	ctx = ensuredContext(ctx)

	normalized := NormalizeHandle(query)
	if normalized == "" {
		return []SearchResult{}, nil
	}

	return cache.GetOrCompute(ctx, s.store, cache.DomainUserSearch, s.keys.UserSearch(normalized), s.searchTTL, func(ctx context.Context) ([]SearchResult, error) {
		var profiles []models.Profile
		if err := s.db.WithContext(ctx).
			Where("handle LIKE ?", "%"+normalized+"%").
			Order("handle").
			Limit(maxSearchResults).
			Find(&profiles).Error; err != nil {
			return nil, storeError(err)
		}
		return toSearchResults(profiles), nil
	})
}

// RandomUsers returns a random profile sample for the discovery rail. The
// result is deliberately uncached so every poll sees a fresh sample.
func (s *ProfileService) RandomUsers(ctx context.Context, limit int) ([]SearchResult, error) {
	ctx = ensuredContext(ctx)

	if limit <= 0 {
		limit = defaultRandomSize
	}
	if limit > maxRandomSize {
		limit = maxRandomSize
	}

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).
		Order(randomOrder(s.db)).
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, storeError(err)
	}
	return toSearchResults(profiles), nil
}

func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

func toSearchResults(profiles []models.Profile) []SearchResult {
	results := make([]SearchResult, 0, len(profiles))
	for _, profile := range profiles {
		results = append(results, SearchResult{
			UserID:      profile.ID,
			DisplayName: profile.DisplayName,
			Handle:      profile.Handle,
			PictureURL:  profile.PictureURL,
			Bio:         profile.Bio,
		})
	}
	return results
}
