package response

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
)

// Response defines the base API payload.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	RetryAfter int64    `json:"retry_after_seconds,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

// Meta describes pagination metadata for list endpoints.
type Meta struct {
	Limit      int   `json:"limit,omitempty"`
	Offset     int   `json:"offset,omitempty"`
	NextCursor int64 `json:"next_cursor,omitempty"`
	Count      int   `json:"count,omitempty"`
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta writes a JSON success response including pagination metadata.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	info := &ErrorInfo{
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}

	if appErr.RetryAfter > 0 {
		// Round up so a caller that sleeps the hinted time lands past the window.
		info.RetryAfter = int64(math.Ceil(appErr.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.FormatInt(info.RetryAfter, 10))
	}

	c.JSON(status, Response{
		Success: false,
		Error:   info,
	})
}
