package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/internal/middleware"
	"github.com/pulsefeed/pulsefeed/internal/services"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

type FeedHandler struct {
	svc *services.FeedService
}

func NewFeedHandler(svc *services.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

// GET /api/feed
func (h *FeedHandler) List(c *gin.Context) {
	query := services.FeedQuery{
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
		Cursor: parseUintQuery(c, "cursor"),
	}

	page, err := h.svc.ListPosts(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, page.Posts, &response.Meta{
		Count:      len(page.Posts),
		NextCursor: int64(page.NextCursor),
	})
}

// Field limits mirror the column sizes on models.Post so an oversized value
// is rejected here instead of surfacing as a database error.
type createPostRequest struct {
	Title    string `json:"title" validate:"required,max=120"`
	Content  string `json:"content" validate:"required,max=5000"`
	ImageURL string `json:"image_url" validate:"omitempty,url,max=512"`
}

// POST /api/posts
func (h *FeedHandler) Create(c *gin.Context) {
	var req createPostRequest
	if !bindAndValidate(c, &req) {
		return
	}

	post, err := h.svc.CreatePost(requestContext(c), middleware.CurrentUserID(c), services.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post)
}

// DELETE /api/posts/:id
func (h *FeedHandler) Delete(c *gin.Context) {
	postID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeletePost(requestContext(c), middleware.CurrentUserID(c), postID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Limit mirrors the models.Comment content column size.
type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// POST /api/posts/:id/comments
func (h *FeedHandler) AddComment(c *gin.Context) {
	postID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req createCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.svc.AddComment(requestContext(c), middleware.CurrentUserID(c), postID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}
