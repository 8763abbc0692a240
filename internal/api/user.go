package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	authService service.IAuthService
	users       service.IUserService
	follows     service.IFollowService
	pageSize    int
}

func NewUserHandler(authService service.IAuthService, users service.IUserService, follows service.IFollowService, pageSize int) *UserHandler {
	return &UserHandler{
		authService: authService,
		users:       users,
		follows:     follows,
		pageSize:    pageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()

	users := router.Group("/users")
	{
		users.POST("/", h.Register)
		users.GET("/", auth, h.ListUsers)
		users.GET("/me/", auth, h.Me)
		users.POST("/set_password/", auth, h.SetPassword)
		users.GET("/subscriptions/", auth, h.Subscriptions)
		users.GET("/:id/", auth, h.GetUser)
		users.POST("/:id/subscribe/", auth, h.Subscribe)
		users.DELETE("/:id/subscribe/", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := pageParams(c, h.pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views, total, err := h.users.ListUsers(c.Request.Context(), middleware.CurrentUser(c), page)
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

func (h *UserHandler) Me(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	view, err := h.users.GetUser(c.Request.Context(), viewer, viewer.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.users.GetUser(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), middleware.CurrentUser(c), &req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, err := pageParams(c, h.pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views, total, err := h.follows.Subscriptions(c.Request.Context(), middleware.CurrentUser(c), page, limit)
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

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.follows.Subscribe(c.Request.Context(), middleware.CurrentUser(c), id, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.follows.Unsubscribe(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
