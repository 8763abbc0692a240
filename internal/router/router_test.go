package router_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	return router.SetupRouter(cfg, api.Dependencies{
		DB:          db,
		Auth:        auth,
		Users:       service.NewUserService(db),
		Recipes:     service.NewRecipeService(db, testhelpers.NewMemoryImageStore()),
		Memberships: service.NewMembershipService(db),
		Follows:     service.NewFollowService(db),
		Shopping:    service.NewShoppingService(db),
		Catalog:     service.NewCatalogService(db),
		PageSize:    6,
	})
}

func TestRouterServesMediaAndMetrics(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "recipes", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "recipes", "images", "a.png"), []byte("png"), 0o644))

	r := setupRouter(t, &config.Config{
		CORSOrigins:  []string{"http://localhost:3000"},
		ImageStorage: "local",
		MediaRoot:    root,
		MediaURL:     "/media/",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/recipes/images/a.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "foodgram_http_requests_total")
}

func TestRouterRendersUnknownRoutesAs404(t *testing.T) {
	r := setupRouter(t, &config.Config{ImageStorage: "s3"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
