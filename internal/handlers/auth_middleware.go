package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gblms/roadmap-service/internal/auth"
)

const (
	usernameContextKey = "username"
	anonymousUser      = "anonymous"
)

// TokenAuthMiddleware validates bearer tokens and resolves the acting
// username into the request context.
type TokenAuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewTokenAuthMiddleware(tokens *auth.TokenManager) *TokenAuthMiddleware {
	return &TokenAuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *TokenAuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := m.usernameFromHeader(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "missing or invalid bearer token",
			})
			return
		}
		c.Set(usernameContextKey, username)
		c.Next()
	}
}

// OptionalAuth resolves the username when a valid token is present and falls
// back to "anonymous" otherwise. Roadmap generation stays usable without an
// account.
func (m *TokenAuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := m.usernameFromHeader(c)
		if !ok {
			username = anonymousUser
		}
		c.Set(usernameContextKey, username)
		c.Next()
	}
}

func (m *TokenAuthMiddleware) usernameFromHeader(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	username, err := m.tokens.Validate(parts[1])
	if err != nil {
		return "", false
	}
	return username, true
}

// UsernameFromContext returns the acting username set by the middleware.
func UsernameFromContext(c *gin.Context) string {
	if value, ok := c.Get(usernameContextKey); ok {
		if username, ok := value.(string); ok && username != "" {
			return username
		}
	}
	return anonymousUser
}
