package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type strictPayload struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Bio  *string `json:"bio"`
}

func runBindStrict(t *testing.T, body string) (*httptest.ResponseRecorder, bool, strictPayload) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var payload strictPayload
	ok := bindStrict(c, &payload)
	return w, ok, payload
}

func TestBindStrictAcceptsKnownFields(t *testing.T) {
	_, ok, payload := runBindStrict(t, `{"name":"maria","bio":"hi"}`)
	require.True(t, ok)
	require.NotNil(t, payload.Name)
	require.Equal(t, "maria", *payload.Name)
}

func TestBindStrictRejectsUnknownFields(t *testing.T) {
	w, ok, _ := runBindStrict(t, `{"name":"maria","role":"admin"}`)
	require.False(t, ok)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "unrecognized fields")
}

func TestBindStrictRejectsMalformedJSON(t *testing.T) {
	w, ok, _ := runBindStrict(t, `{"name":`)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseIntQueryFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=25&bad=abc", nil)

	require.Equal(t, 25, parseIntQuery(c, "limit", 10))
	require.Equal(t, 10, parseIntQuery(c, "bad", 10))
	require.Equal(t, 10, parseIntQuery(c, "missing", 10))
	require.Equal(t, uint(0), parseUintQuery(c, "bad"))
}
