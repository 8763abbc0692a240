package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MaxRecipeBodySize bounds recipe create and update bodies. It leaves room
// for a base64 image of service.MaxImageSize.
const MaxRecipeBodySize int64 = 8 << 20

type RecipeHandler struct {
	recipes     service.IRecipeService
	memberships service.IMembershipService
	shopping    service.IShoppingService
	createLimit gin.HandlerFunc
	pageSize    int
}

// NewRecipeHandler creates a recipe handler. createLimit may be nil.
func NewRecipeHandler(
	recipes service.IRecipeService,
	memberships service.IMembershipService,
	shopping service.IShoppingService,
	createLimit gin.HandlerFunc,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:     recipes,
		memberships: memberships,
		shopping:    shopping,
		createLimit: createLimit,
		pageSize:    pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()
	limitBody := middleware.BodyLimit(MaxRecipeBodySize)

	create := []gin.HandlerFunc{auth}
	if h.createLimit != nil {
		create = append(create, h.createLimit)
	}
	create = append(create, limitBody, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", auth, h.DownloadShoppingCart)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PUT("/:id/", auth, limitBody, h.UpdateRecipe)
		recipes.PATCH("/:id/", auth, limitBody, h.UpdateRecipe)
		recipes.DELETE("/:id/", auth, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", auth, h.addTo(service.Favorite))
		recipes.DELETE("/:id/favorite/", auth, h.removeFrom(service.Favorite))
		recipes.POST("/:id/shopping_cart/", auth, h.addTo(service.Cart))
		recipes.DELETE("/:id/shopping_cart/", auth, h.removeFrom(service.Cart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, err := pageParams(c, h.pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	verr := &service.ValidationError{}
	filter := types.RecipeFilter{
		AuthorID:         queryUint(c, "author", verr),
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryBool(c, "is_favorited", verr),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart", verr),
	}
	if err := verr.Err(); err != nil {
		_ = c.Error(err)
		return
	}

	views, total, err := h.recipes.List(c.Request.Context(), middleware.CurrentUser(c), filter, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := paginate(c, page, total, views)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.recipes.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var in types.RecipeInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.recipes.Create(c.Request.Context(), middleware.CurrentUser(c), &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateRecipe serves both PUT and PATCH; every field except the image is required.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var in types.RecipeInput
	if err := bindJSON(c, &in); err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.recipes.Update(c.Request.Context(), middleware.CurrentUser(c), id, &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) addTo(kind service.MembershipKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}

		short, err := h.memberships.Add(c.Request.Context(), middleware.CurrentUser(c), kind, id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, short)
	}
}

func (h *RecipeHandler) removeFrom(kind service.MembershipKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := h.memberships.Remove(c.Request.Context(), middleware.CurrentUser(c), kind, id); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	filename, body, err := h.shopping.Download(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/plain", []byte(body))
}
