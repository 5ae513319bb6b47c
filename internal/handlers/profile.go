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

type ProfileHandler struct {
	svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GET /api/users/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		response.Error(c, appErrors.NewBadRequest("invalid user id"))
		return
	}

	profile, err := h.svc.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// updateProfileRequest enumerates every editable profile field. The decode is
// strict: a payload carrying any other field is rejected as a whole.
type updateProfileRequest struct {
	DisplayName *string                `json:"display_name" validate:"omitempty,min=1,max=100"`
	Bio         *string                `json:"bio" validate:"omitempty,max=500"`
	BannerURL   *string                `json:"banner_url" validate:"omitempty,url"`
	PictureURL  *string                `json:"picture_url" validate:"omitempty,url"`
	SocialLinks map[string]interface{} `json:"social_links"`
	Preferences map[string]interface{} `json:"preferences"`
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if !bindStrict(c, &req) {
		return
	}

	profile, err := h.svc.Update(requestContext(c), middleware.CurrentUserID(c), services.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		BannerURL:   req.BannerURL,
		PictureURL:  req.PictureURL,
		SocialLinks: req.SocialLinks,
		Preferences: req.Preferences,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}
