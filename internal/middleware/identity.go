package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/pulsefeed/pulsefeed/pkg/errors"
	"github.com/pulsefeed/pulsefeed/pkg/response"
)

// IdentityHeader is the trusted header set by the fronting auth layer.
const IdentityHeader = "X-User-ID"

// userIDKey is the gin context key handlers read the caller id from.
const userIDKey = "userID"

// IdentityResolver extracts the authenticated caller from a request. Session
// issuance and verification live in an external collaborator; this core only
// consumes the resolved identity.
type IdentityResolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderIdentityResolver trusts the identity header placed by the fronting
// auth proxy. Deployments exposing the API directly must substitute a
// resolver that verifies credentials itself.
type HeaderIdentityResolver struct{}

// Resolve returns the caller id from the identity header, empty when absent.
func (HeaderIdentityResolver) Resolve(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get(IdentityHeader)), nil
}

// Identity resolves the caller on every request and stores it in the context.
// Resolution failures are treated as anonymous; endpoints that require a
// caller enforce it with RequireUser.
func Identity(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolver != nil {
			if userID, err := resolver.Resolve(c.Request); err == nil && userID != "" {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no caller identity was resolved.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the resolved caller id, empty for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	v, ok := c.Get(userIDKey)
	if !ok {
		return ""
	}
	userID, _ := v.(string)
	return userID
}
