package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/auth"
	"github.com/khayai/repairbot/internal/domain"
)

// Context keys of the authenticated admin. "userID" is also what the rate
// limiter keys on.
const (
	ctxKeyUser = "userID"
	ctxKeyRole = "role"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// Authenticate requires a valid "Authorization: Bearer <jwt>" header and
// stores the username and role in the Gin context.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(ctxKeyUser, claims.Username)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role is
// one of roles. It must run after Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[Role(c)]; !ok {
			abortJSON(c, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}
		c.Next()
	}
}

// Username returns the authenticated admin username, or "".
func Username(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUser)
	return asString(v)
}

// Role returns the authenticated admin role, or "".
func Role(c *gin.Context) domain.Role {
	if v, ok := c.Get(ctxKeyRole); ok {
		if r, ok := v.(domain.Role); ok {
			return r
		}
	}
	return ""
}

func bearerToken(h string) string {
	const prefix = "bearer "
	h = strings.TrimSpace(h)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// abortJSON writes the shared error envelope. Middleware cannot import the
// handlers package, so the shape is repeated here.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
