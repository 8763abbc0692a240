package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"gorm.io/gorm"
)

// Dependencies are the services behind the HTTP API.
type Dependencies struct {
	DB          *gorm.DB
	Auth        service.IAuthService
	Users       service.IUserService
	Recipes     service.IRecipeService
	Memberships service.IMembershipService
	Follows     service.IFollowService
	Shopping    service.IShoppingService
	Catalog     service.ICatalogService

	// RecipeLimiter throttles recipe creation. Nil disables it.
	RecipeLimiter gin.HandlerFunc
	PageSize      int
}

// HealthCheck reports whether the API and its database are reachable.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := database.HealthCheck(ctx, db); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("database health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	}
}

// RegisterRoutes mounts the API under /api. Every route sees the optional
// authentication middleware; handlers that need a user add RequireAuth.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck(deps.DB))

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Authenticate(deps.Auth, deps.Auth))
	apiGroup.GET("/health", HealthCheck(deps.DB))

	NewAuthHandler(deps.Auth).RegisterRoutes(apiGroup)
	NewUserHandler(deps.Auth, deps.Users, deps.Follows, deps.PageSize).RegisterRoutes(apiGroup)
	NewRecipeHandler(deps.Recipes, deps.Memberships, deps.Shopping, deps.RecipeLimiter, deps.PageSize).RegisterRoutes(apiGroup)
	NewCatalogHandler(deps.Catalog).RegisterRoutes(apiGroup)
}
