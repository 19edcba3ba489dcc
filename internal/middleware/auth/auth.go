// Package auth resolves bearer tokens to users and guards protected
// routes.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/services"
	"budgetshop/internal/store"
)

// Gin context keys for the authenticated user and the token that
// authenticated them.
const (
	userKey  = "auth_user"
	tokenKey = "auth_token"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

// Middleware returns gin middleware that requires a valid bearer token
// and stores the resolved user in the request context.
func Middleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.Request.Header.Get("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, services.ErrSessionExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		case errors.Is(err, store.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		case err != nil:
			slog.ErrorContext(c.Request.Context(), "Session lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user for the request. Only
// valid on routes behind Middleware.
func CurrentUser(c *gin.Context) core.User {
	v, _ := c.Get(userKey)
	user, _ := v.(core.User)
	return user
}

// CurrentToken returns the session token the request authenticated
// with, so logout can revoke exactly that session.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
