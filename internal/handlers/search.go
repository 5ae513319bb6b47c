package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/internal/services"
	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

type SearchHandler struct {
	svc *services.ProfileService
}

func NewSearchHandler(svc *services.ProfileService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// GET /api/search/users
func (h *SearchHandler) Users(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, appErrors.NewBadRequest("query parameter q is required"))
		return
	}

	results, err := h.svc.SearchUsers(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{Count: len(results)})
}

// GET /api/search/users/random
func (h *SearchHandler) Random(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)

	results, err := h.svc.RandomUsers(requestContext(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{Count: len(results)})
}
