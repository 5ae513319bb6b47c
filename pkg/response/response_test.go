package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

func performJSON(t *testing.T, write func(*gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	write(c)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSuccessEnvelope(t *testing.T) {
	rec, body := performJSON(t, func(c *gin.Context) {
		Success(c, http.StatusOK, map[string]string{"hello": "world"})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)
	require.Nil(t, body.Error)
}

func TestErrorEnvelopeCarriesRetryAfter(t *testing.T) {
	rec, body := performJSON(t, func(c *gin.Context) {
		Error(c, appErrors.NewCooldownActive("wait before posting again", 90*time.Second))
	})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.False(t, body.Success)
	require.NotNil(t, body.Error)
	require.Equal(t, "COOLDOWN_ACTIVE", body.Error.Code)
	require.EqualValues(t, 90, body.Error.RetryAfter)
	require.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestErrorEnvelopeRoundsPartialSecondsUp(t *testing.T) {
	_, body := performJSON(t, func(c *gin.Context) {
		Error(c, appErrors.NewRateLimited(1500*time.Millisecond))
	})

	require.EqualValues(t, 2, body.Error.RetryAfter)
}

func TestErrorDefaultsToInternal(t *testing.T) {
	rec, body := performJSON(t, func(c *gin.Context) {
		Error(c, nil)
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
}
