package jwtmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUser is the gin context key holding the principal resolved by AuthRequired.
const ContextUser = "currentUser"

// ResolveFunc turns a raw bearer token into an authenticated principal.
type ResolveFunc func(ctx context.Context, token string) (any, error)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// AuthRequired returns a gin middleware that rejects requests without a
// bearer token that resolve accepts. The resolved principal is stored under
// ContextUser for downstream handlers.
func AuthRequired(resolve ResolveFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		principal, err := resolve(c.Request.Context(), token)
		if err != nil {
			slog.Debug("bearer authentication failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ContextUser, principal)
		c.Next()
	}
}
