package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/internal/middleware"
	"github.com/pulsefeed/pulsefeed/internal/services"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

type LikeHandler struct {
	svc *services.LikeService
}

func NewLikeHandler(svc *services.LikeService) *LikeHandler {
	return &LikeHandler{svc: svc}
}

type toggleLikeRequest struct {
	PostID uint `json:"post_id" validate:"required"`
}

// POST /api/likes/toggle
func (h *LikeHandler) Toggle(c *gin.Context) {
	var req toggleLikeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.ToggleLike(requestContext(c), middleware.CurrentUserID(c), req.PostID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

type batchLikeRequest struct {
	PostIDs []uint `json:"post_ids" validate:"required,max=500"`
}

// POST /api/likes/batch
func (h *LikeHandler) Batch(c *gin.Context) {
	var req batchLikeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	data, err := h.svc.BatchLikeData(requestContext(c), middleware.CurrentUserID(c), req.PostIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, data, &response.Meta{Count: len(data)})
}
