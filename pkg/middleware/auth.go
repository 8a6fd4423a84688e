package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/asg-rev/pkg/jwt"
	"github.com/weiawesome/asg-rev/pkg/response"
)

const (
	UserIDKey     = "user_id"
	EmailKey      = "email"
	UsernameKey   = "username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// TokenQueryKey carries the token for websocket handshakes, where
	// browsers cannot set headers.
	TokenQueryKey = "token"
)

// AuthMiddleware validates bearer tokens issued by the auth backend.
type AuthMiddleware struct {
	manager *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(manager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{manager: manager}
}

// RequireAuth aborts with 401 unless a valid token is presented.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth populates the identity when a valid token is presented and
// lets the request through either way. Handlers decide how to deny.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token := extractToken(c)
	if token == "" {
		return false
	}

	claims, err := m.manager.ValidateToken(token)
	if err != nil {
		return false
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
	c.Set(UsernameKey, claims.Username)
	return true
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader(AuthHeaderKey); strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	return c.Query(TokenQueryKey)
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// GetEmail extracts email from Gin context.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}
