package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/models"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/metrics"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// FeedService serves paginated post listings through the cache layer and owns
// the post write path, including the posting cooldown.
type FeedService struct {
	db            *gorm.DB
	store         cache.Store
	keys          cache.Keyspace
	invalidator   *cache.Invalidator
	feedTTL       time.Duration
	postingWindow time.Duration
	now           func() time.Time
}

// FeedServiceConfig carries the tunables for the feed read and write paths.
type FeedServiceConfig struct {
	FeedTTL       time.Duration
	PostingWindow time.Duration
}

// NewFeedService constructs a feed service over the relational store and cache.
func NewFeedService(db *gorm.DB, store cache.Store, keys cache.Keyspace, invalidator *cache.Invalidator, cfg FeedServiceConfig) (*FeedService, error) {
	if db == nil {
		return nil, errors.New("feed service: db is required")
	}
	if invalidator == nil {
		return nil, errors.New("feed service: invalidator is required")
	}
	if cfg.FeedTTL <= 0 {
		cfg.FeedTTL = 30 * time.Second
	}
	if cfg.PostingWindow <= 0 {
		cfg.PostingWindow = 5 * time.Minute
	}
	return &FeedService{
		db:            db,
		store:         store,
		keys:          keys,
		invalidator:   invalidator,
		feedTTL:       cfg.FeedTTL,
		postingWindow: cfg.PostingWindow,
		now:           time.Now,
	}, nil
}

// FeedQuery selects a feed page. Cursor takes precedence over Offset: a
// non-zero cursor requests the forward-only scan (posts with id greater than
// the cursor), otherwise the offset-based listing is used.
type FeedQuery struct {
	Limit  int
	Offset int
	Cursor uint
}

func (q FeedQuery) normalized() FeedQuery {
	if q.Limit <= 0 {
		q.Limit = defaultFeedLimit
	}
	if q.Limit > maxFeedLimit {
		q.Limit = maxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// FeedPage is a fully shaped page of posts as served to clients.
type FeedPage struct {
	Posts      []models.Post `json:"posts"`
	NextCursor uint          `json:"next_cursor,omitempty"`
}

// ListPosts returns a feed page, cache-aside with a short TTL since feed data
// is read far more often than it is written.
func (s *FeedService) ListPosts(ctx context.Context, query FeedQuery) (FeedPage, error) {
	ctx = ensuredContext(ctx)
	query = query.normalized()

	var key string
	if query.Cursor > 0 {
		key = s.keys.FeedCursor(query.Cursor, query.Limit)
	} else {
		key = s.keys.FeedPage(query.Limit, query.Offset)
	}

	return cache.GetOrCompute(ctx, s.store, cache.DomainPosts, key, s.feedTTL, func(ctx context.Context) (FeedPage, error) {
		return s.queryPage(ctx, query)
	})
}

func (s *FeedService) queryPage(ctx context.Context, query FeedQuery) (FeedPage, error) {
	var posts []models.Post

	q := s.db.WithContext(ctx).Preload("Comments").Limit(query.Limit)
	if query.Cursor > 0 {
		q = q.Where("id > ?", query.Cursor).Order("id ASC")
	} else {
		q = q.Order("created_at DESC, id DESC").Offset(query.Offset)
	}

	if err := q.Find(&posts).Error; err != nil {
		return FeedPage{}, storeError(err)
	}

	if err := s.resolveAuthorHandles(ctx, posts); err != nil {
		return FeedPage{}, err
	}

	page := FeedPage{Posts: posts}
	if query.Cursor > 0 {
		for _, post := range posts {
			if post.ID > page.NextCursor {
				page.NextCursor = post.ID
			}
		}
	}
	return page, nil
}

// resolveAuthorHandles refreshes the normalized handle of each post's author
// with one batched lookup. The rest of the author snapshot stays as captured
// at creation time; the handle is the one field search links against.
func (s *FeedService) resolveAuthorHandles(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.AuthorID]; ok {
			continue
		}
		seen[post.AuthorID] = struct{}{}
		ids = append(ids, post.AuthorID)
	}

	type handleRow struct {
		ID     string
		Handle string
	}
	var rows []handleRow
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Select("id", "handle").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return storeError(err)
	}

	handles := make(map[string]string, len(rows))
	for _, row := range rows {
		handles[row.ID] = row.Handle
	}

	for i := range posts {
		if handle, ok := handles[posts[i].AuthorID]; ok {
			posts[i].AuthorHandle = handle
		}
	}
	return nil
}

// CreatePostInput captures required fields when creating a post.
type CreatePostInput struct {
	Title    string
	Content  string
	ImageURL string
}

// CreatePost inserts a post for the author, enforcing the rolling posting
// cooldown measured from the author's most recent post. On success every
// cached feed page is evicted before returning.
func (s *FeedService) CreatePost(ctx context.Context, authorID string, input CreatePostInput) (*models.Post, error) {
	ctx = ensuredContext(ctx)

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, appErrors.NewValidationFailed("title and content are required", "title", "content")
	}

	var author models.Profile
	if err := s.db.WithContext(ctx).Take(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err)
	}

	var latest models.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Take(&latest).Error
	switch {
	case err == nil:
		if remaining := CooldownRemaining(s.now(), latest.CreatedAt, s.postingWindow); remaining > 0 {
			metrics.CooldownRejections.WithLabelValues("posting").Inc()
			return nil, appErrors.NewCooldownActive("you can only post once every few minutes", remaining)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First post, no cooldown to check.
	default:
		return nil, storeError(err)
	}

	post := models.Post{
		Title:         title,
		Content:       content,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		AuthorID:      author.ID,
		AuthorName:    author.DisplayName,
		AuthorPicture: author.PictureURL,
		AuthorHandle:  author.Handle,
		Comments:      []models.Comment{},
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, storeError(err)
	}

	s.invalidator.InvalidatePosts(ctx)
	return &post, nil
}

// DeletePost removes a post owned by the caller. An absent post and a post
// owned by someone else are both reported as NotFound so existence is not
// leaked.
func (s *FeedService) DeletePost(ctx context.Context, callerID string, postID uint) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", postID, callerID).
		Delete(&models.Post{})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrNotFound
	}

	s.invalidator.InvalidatePosts(ctx)
	return nil
}

// AddComment appends a comment to a post with the commenter's snapshot.
func (s *FeedService) AddComment(ctx context.Context, authorID string, postID uint, content string) (*models.Comment, error) {
	ctx = ensuredContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErrors.NewValidationFailed("comment content is required", "content")
	}

	var author models.Profile
	if err := s.db.WithContext(ctx).Take(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err)
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Count(&exists).Error; err != nil {
		return nil, storeError(err)
	}
	if exists == 0 {
		return nil, appErrors.ErrNotFound
	}

	comment := models.Comment{
		PostID:        postID,
		AuthorID:      author.ID,
		AuthorName:    author.DisplayName,
		AuthorPicture: author.PictureURL,
		Content:       content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, storeError(err)
	}

	s.invalidator.InvalidatePosts(ctx)
	return &comment, nil
}
