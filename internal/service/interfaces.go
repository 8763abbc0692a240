package service

import (
	"context"
	"io"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, in *types.RegisterRequest) (*types.UserView, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	SetPassword(ctx context.Context, actor *models.User, in *types.SetPasswordRequest) error
}

// IUserService defines the interface for reading user profiles
type IUserService interface {
	ListUsers(ctx context.Context, viewer *models.User, page types.Page) ([]types.UserView, int64, error)
	GetUser(ctx context.Context, viewer *models.User, id uint) (*types.UserView, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, actor *models.User, in *types.RecipeInput) (*types.RecipeView, error)
	Update(ctx context.Context, actor *models.User, id uint, in *types.RecipeInput) (*types.RecipeView, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
	Get(ctx context.Context, viewer *models.User, id uint) (*types.RecipeView, error)
	List(ctx context.Context, viewer *models.User, filter types.RecipeFilter, page types.Page) ([]types.RecipeView, int64, error)
}

// IMembershipService defines the interface for favorites and the shopping cart
type IMembershipService interface {
	Add(ctx context.Context, actor *models.User, kind MembershipKind, recipeID uint) (*types.RecipeShort, error)
	Remove(ctx context.Context, actor *models.User, kind MembershipKind, recipeID uint) error
}

// IFollowService defines the interface for subscriptions
type IFollowService interface {
	Subscribe(ctx context.Context, actor *models.User, authorID uint, recipesLimit int) (*types.FollowView, error)
	Unsubscribe(ctx context.Context, actor *models.User, authorID uint) error
	Subscriptions(ctx context.Context, actor *models.User, page types.Page, recipesLimit int) ([]types.FollowView, int64, error)
}

// IShoppingService defines the interface for the shopping list download
type IShoppingService interface {
	Download(ctx context.Context, user *models.User) (filename, body string, err error)
}

// ICatalogService defines the interface for tags and ingredients
type ICatalogService interface {
	ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientView, error)
	CreateIngredient(ctx context.Context, actor *models.User, in *types.IngredientInput) (*types.IngredientView, error)
	UpdateIngredient(ctx context.Context, actor *models.User, id uint, in *types.IngredientInput) (*types.IngredientView, error)
	DeleteIngredient(ctx context.Context, actor *models.User, id uint) error
	ListTags(ctx context.Context) ([]types.TagView, error)
	GetTag(ctx context.Context, id uint) (*types.TagView, error)
	CreateTag(ctx context.Context, actor *models.User, in *types.TagInput) (*types.TagView, error)
	UpdateTag(ctx context.Context, actor *models.User, id uint, in *types.TagInput) (*types.TagView, error)
	DeleteTag(ctx context.Context, actor *models.User, id uint) error
	LoadIngredients(ctx context.Context, r io.Reader) (int64, error)
}

var (
	_ IAuthService       = (*AuthService)(nil)
	_ IUserService       = (*UserService)(nil)
	_ IRecipeService     = (*RecipeService)(nil)
	_ IMembershipService = (*MembershipService)(nil)
	_ IFollowService     = (*FollowService)(nil)
	_ IShoppingService   = (*ShoppingService)(nil)
	_ ICatalogService    = (*CatalogService)(nil)
	_ ImageStore         = (*S3ImageStore)(nil)
	_ ImageStore         = (*LocalImageStore)(nil)
)
