package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

// likeBatchChunk bounds the ids resolved in one database round trip. Larger
// requests are chunked and the chunks run concurrently.
const likeBatchChunk = 50

// LikeService computes batched like aggregates and owns the like toggle.
type LikeService struct {
	db          *gorm.DB
	invalidator *cache.Invalidator
}

// NewLikeService constructs a like service.
func NewLikeService(db *gorm.DB, invalidator *cache.Invalidator) (*LikeService, error) {
	if db == nil {
		return nil, errors.New("like service: db is required")
	}
	if invalidator == nil {
		return nil, errors.New("like service: invalidator is required")
	}
	return &LikeService{db: db, invalidator: invalidator}, nil
}

// LikeData is the per-post aggregate returned by BatchLikeData.
type LikeData struct {
	PostID    uint  `json:"post_id"`
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

// BatchLikeData resolves like counts for a set of post ids in bounded chunks
// executed concurrently. When callerID is non-empty the result also reports
// which of the posts the caller has liked. Every input id appears exactly once
// in the output, zero-valued when the post has no likes; duplicates in the
// input are collapsed. Cancelling ctx cancels in-flight chunk queries.
func (s *LikeService) BatchLikeData(ctx context.Context, callerID string, postIDs []uint) ([]LikeData, error) {
	ctx = ensuredContext(ctx)

	seen := make(map[uint]struct{}, len(postIDs))
	ids := make([]uint, 0, len(postIDs))
	for _, id := range postIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []LikeData{}, nil
	}

	counts := make(map[uint]int64, len(ids))
	liked := make(map[uint]bool)
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += likeBatchChunk {
		end := start + likeBatchChunk
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		group.Go(func() error {
			chunkCounts, chunkLiked, err := s.aggregateChunk(groupCtx, callerID, chunk)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for id, count := range chunkCounts {
				counts[id] = count
			}
			for id := range chunkLiked {
				liked[id] = true
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]LikeData, 0, len(ids))
	for _, id := range ids {
		out = append(out, LikeData{
			PostID:    id,
			LikeCount: counts[id],
			Liked:     liked[id],
		})
	}
	return out, nil
}

func (s *LikeService) aggregateChunk(ctx context.Context, callerID string, ids []uint) (map[uint]int64, map[uint]struct{}, error) {
	type countRow struct {
		PostID uint
		Count  int64
	}
	var rows []countRow
	if err := s.db.WithContext(ctx).Model(&models.LikeEdge{}).
		Select("post_id", "COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, nil, storeError(err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}

	liked := make(map[uint]struct{})
	if callerID != "" {
		var likedIDs []uint
		if err := s.db.WithContext(ctx).Model(&models.LikeEdge{}).
			Where("user_id = ? AND post_id IN ?", callerID, ids).
			Pluck("post_id", &likedIDs).Error; err != nil {
			return nil, nil, storeError(err)
		}
		for _, id := range likedIDs {
			liked[id] = struct{}{}
		}
	}

	return counts, liked, nil
}

// ToggleResult is the post-operation truth for a like toggle.
type ToggleResult struct {
	PostID    uint  `json:"post_id"`
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// ToggleLike flips the caller's like on a post inside one transaction so two
// concurrent toggles from the same user cannot both insert or both delete.
// The returned count is re-read inside the transaction, not assumed.
func (s *LikeService) ToggleLike(ctx context.Context, userID string, postID uint) (ToggleResult, error) {
	ctx = ensuredContext(ctx)

	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postExists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&postExists).Error; err != nil {
			return storeError(err)
		}
		if postExists == 0 {
			return appErrors.ErrNotFound
		}

		var edge models.LikeEdge
		err := tx.Take(&edge, "user_id = ? AND post_id = ?", userID, postID).Error
		switch {
		case err == nil:
			if err := tx.Delete(&edge).Error; err != nil {
				return storeError(err)
			}
			result.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			edge = models.LikeEdge{UserID: userID, PostID: postID, CreatedAt: time.Now()}
			if err := tx.Create(&edge).Error; err != nil {
				if isUniqueConstraintError(err) {
					// Lost a race against a concurrent toggle from the same user.
					return appErrors.ErrConflict
				}
				return storeError(err)
			}
			result.Liked = true
		default:
			return storeError(err)
		}

		if err := tx.Model(&models.LikeEdge{}).
			Where("post_id = ?", postID).
			Count(&result.LikeCount).Error; err != nil {
			return storeError(err)
		}
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}

	result.PostID = postID
	s.invalidator.InvalidatePosts(ctx)
	return result, nil
}
