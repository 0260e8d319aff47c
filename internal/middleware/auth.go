package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
)

// UserKey is the gin context key of the authenticated *models.User.
const UserKey = "user"

const (
	msgNotAuthenticated = "Not authenticated"
	msgBadCredentials   = "Could not validate credentials"
)

// UserResolver maps a bearer token to its user. A token that names no
// user yields an error of kind services.ErrUnauthorized.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func AuthMiddleware(resolver UserResolver, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, msgNotAuthenticated)
			return
		}

		user, err := resolver.CurrentUser(c.Request.Context(), token)
		if errors.Is(err, services.ErrUnauthorized) || (err == nil && user == nil) {
			unauthorized(c, msgBadCredentials)
			return
		}
		if err != nil {
			log.Error(c.Request.Context(), "resolve current user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
