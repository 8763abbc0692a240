package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	db     *gorm.DB
	redis  *redis.Client
	router *gin.Engine
	http   *http.Server
}

// New connects to the database, Redis and image storage named by cfg and
// wires the API on top of them. Redis is optional: without it recipe
// creation is not rate limited.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, cfg.MigrationDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, recipe creation is not rate limited")
		redisClient = nil
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithDeps(cfg, db, redisClient, images), nil
}

// NewWithDeps builds a server on already opened connections. redisClient
// may be nil.
func NewWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
	deps := api.Dependencies{
		DB:          db,
		Auth:        auth,
		Users:       service.NewUserService(db),
		Recipes:     service.NewRecipeService(db, images),
		Memberships: service.NewMembershipService(db),
		Follows:     service.NewFollowService(db),
		Shopping:    service.NewShoppingService(db),
		Catalog:     service.NewCatalogService(db),
		PageSize:    cfg.PageSize,
	}
	if redisClient != nil {
		limiter := middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit, cfg.RecipeCreateWindow)
		deps.RecipeLimiter = limiter.Middleware()
	}

	r := router.SetupRouter(cfg, deps)
	return &Server{
		cfg:    cfg,
		db:     db,
		redis:  redisClient,
		router: r,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func newImageStore(ctx context.Context, cfg *config.Config) (service.ImageStore, error) {
	if cfg.ImageStorage == "s3" {
		s3Config, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("bucket", s3Config.BucketName).Msg("storing recipe images in S3")
		return service.NewS3ImageStore(s3Config), nil
	}
	logging.Info().Str("root", cfg.MediaRoot).Msg("storing recipe images on local disk")
	return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, then closes Redis and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close redis client")
		}
	}
	if sqlDB, derr := s.db.DB(); derr == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close database")
		}
	}
	return err
}
