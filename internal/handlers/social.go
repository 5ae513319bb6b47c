package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/internal/middleware"
	"github.com/pulsefeed/pulsefeed/internal/services"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

type SocialHandler struct {
	svc *services.SocialService
}

func NewSocialHandler(svc *services.SocialService) *SocialHandler {
	return &SocialHandler{svc: svc}
}

type toggleFollowRequest struct {
	TargetID string `json:"target_id" validate:"required"`
}

// POST /api/follows/toggle
func (h *SocialHandler) Toggle(c *gin.Context) {
	var req toggleFollowRequest
	if !bindAndValidate(c, &req) {
		return
	}

	state, err := h.svc.ToggleFollow(requestContext(c), middleware.CurrentUserID(c), req.TargetID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GET /api/users/:id/followers
func (h *SocialHandler) Followers(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		response.Error(c, appErrors.NewBadRequest("invalid user id"))
		return
	}

	entries, err := h.svc.Followers(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Count: len(entries)})
}

// GET /api/users/:id/following
func (h *SocialHandler) Following(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		response.Error(c, appErrors.NewBadRequest("invalid user id"))
		return
	}

	entries, err := h.svc.Following(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Count: len(entries)})
}
