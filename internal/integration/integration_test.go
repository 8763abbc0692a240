package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

// login registers a user through the API and returns a client carrying
// its token.
func login(t *testing.T, handler http.Handler, username string) *client {
	t.Helper()
	anon := &client{t: t, handler: handler}

	creds := map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "integration-pass",
	}
	w := anon.do(http.MethodPost, "/api/users/", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = anon.do(http.MethodPost, "/api/auth/token/login/", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AuthToken string `json:"auth_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &client{t: t, handler: handler, token: resp.AuthToken}
}

func setupServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupPostgres(t, "../../migrations")

	cfg := &config.Config{
		ServerHost:   "127.0.0.1",
		ServerPort:   "0",
		CORSOrigins:  []string{"http://localhost:3000"},
		JWTSecret:    "integration-secret",
		JWTTTL:       time.Hour,
		ImageStorage: "local",
		MediaRoot:    t.TempDir(),
		MediaURL:     "/media",
		PageSize:     6,
	}
	srv := server.NewWithDeps(cfg, db, nil, testhelpers.NewMemoryImageStore())
	return srv.Handler(), db
}

func TestRecipeFlowOnPostgres(t *testing.T) {
	handler, db := setupServer(t)
	tag := testhelpers.CreateTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")

	alice := login(t, handler, "alice")
	bob := login(t, handler, "bob")

	ids := make([]uint, 0, 2)
	for _, name := range []string{"pancakes", "crepes"} {
		w := alice.do(http.MethodPost, "/api/recipes/", map[string]interface{}{
			"name":         name,
			"text":         "Whisk and fry",
			"cooking_time": 20,
			"image":        testhelpers.PNGDataURI(),
			"tags":         []uint{tag.ID},
			"ingredients": []map[string]interface{}{
				{"id": flour.ID, "amount": 150},
				{"id": milk.ID, "amount": 300},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created struct {
			ID uint `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		ids = append(ids, created.ID)
	}

	for _, id := range ids {
		w := bob.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", id), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := bob.do(http.MethodGet, "/api/recipes/download_shopping_cart/", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "- flour (g) - 300")
	assert.Contains(t, w.Body.String(), "- milk (ml) - 600")

	w = bob.do(http.MethodGet, "/api/recipes/?tags=breakfast&is_in_shopping_cart=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(2), list.Count)

	w = alice.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", ids[0]), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var carts int64
	require.NoError(t, db.Model(&models.ShoppingCart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
	var tagRows int64
	require.NoError(t, db.Model(&models.RecipeTag{}).Where("recipe_id = ?", ids[0]).Count(&tagRows).Error)
	assert.Zero(t, tagRows)
}

func TestConcurrentFavoritesOnPostgres(t *testing.T) {
	handler, db := setupServer(t)
	author := testhelpers.CreateUser(t, db, "author")
	recipe := testhelpers.CreateRecipe(t, db, author, "stew", nil)
	fan := login(t, handler, "fan")

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = fan.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite/", recipe.ID), nil).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, created)

	var favorites int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&favorites).Error)
	assert.Equal(t, int64(1), favorites)
}
