package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userIDKey = "user_id"
	userKey   = "user"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// UserLoader resolves the user named by a token.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate resolves the user behind the Authorization header, if any.
// Requests without credentials continue anonymously; a header that does
// not resolve to a user is rejected with 401.
func Authenticate(validator TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// "Token" is what the original web client sends
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || (scheme != "Bearer" && scheme != "Token") || token == "" {
			abortWithError(c, service.ErrUnauthenticated, "invalid authorization header format")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			abortWithError(c, service.ErrUnauthenticated, "invalid token")
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			abortWithError(c, service.ErrUnauthenticated, "user not found")
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortWithError(c, service.ErrUnauthenticated, "")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func abortWithError(c *gin.Context, kind error, message string) {
	_ = c.Error(&service.Error{Kind: kind, Message: message})
	c.Abort()
}
