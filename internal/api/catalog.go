package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CatalogHandler serves tags and ingredients. Lists are not paginated.
type CatalogHandler struct {
	catalog service.ICatalogService
}

func NewCatalogHandler(catalog service.ICatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()

	tags := router.Group("/tags")
	{
		tags.GET("/", h.ListTags)
		tags.POST("/", auth, h.CreateTag)
		tags.GET("/:id/", h.GetTag)
		tags.PUT("/:id/", auth, h.UpdateTag)
		tags.PATCH("/:id/", auth, h.UpdateTag)
		tags.DELETE("/:id/", auth, h.DeleteTag)
	}

	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("/", h.ListIngredients)
		ingredients.POST("/", auth, h.CreateIngredient)
		ingredients.GET("/:id/", h.GetIngredient)
		ingredients.PUT("/:id/", auth, h.UpdateIngredient)
		ingredients.PATCH("/:id/", auth, h.UpdateIngredient)
		ingredients.DELETE("/:id/", auth, h.DeleteIngredient)
	}
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var in types.TagInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	tag, err := h.catalog.CreateTag(c.Request.Context(), middleware.CurrentUser(c), &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *CatalogHandler) UpdateTag(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var in types.TagInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	tag, err := h.catalog.UpdateTag(c.Request.Context(), middleware.CurrentUser(c), id, &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *CatalogHandler) DeleteTag(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.catalog.DeleteTag(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIngredients supports ?name= for a case-insensitive prefix search.
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.catalog.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	ingredient, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var in types.IngredientInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	ingredient, err := h.catalog.CreateIngredient(c.Request.Context(), middleware.CurrentUser(c), &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

func (h *CatalogHandler) UpdateIngredient(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var in types.IngredientInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	ingredient, err := h.catalog.UpdateIngredient(c.Request.Context(), middleware.CurrentUser(c), id, &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// DeleteIngredient refuses ingredients that recipes still use.
func (h *CatalogHandler) DeleteIngredient(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.catalog.DeleteIngredient(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
