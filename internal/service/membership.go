package service

import (
	"context"
	"errors"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// MembershipKind selects the per-user recipe collection.
type MembershipKind string

const (
	Favorite MembershipKind = "favorite"
	Cart     MembershipKind = "shopping_cart"
)

func (k MembershipKind) row(userID, recipeID uint) interface{} {
	if k == Cart {
		return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (k MembershipKind) model() interface{} {
	if k == Cart {
		return &models.ShoppingCart{}
	}
	return &models.Favorite{}
}

// MembershipService toggles favorites and shopping cart entries.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// Add puts the recipe into the actor's collection. The unique constraint on
// (user, recipe) decides duplicates, so concurrent adds cannot both succeed.
func (s *MembershipService) Add(ctx context.Context, actor *models.User, kind MembershipKind, recipeID uint) (short *types.RecipeShort, err error) {
	defer func() { metrics.MembershipToggles.WithLabelValues(string(kind), "add", metrics.Result(err)).Inc() }()

	if actor == nil {
		return nil, ErrUnauthenticated
	}

	var recipe models.Recipe
	err = s.db.WithContext(ctx).First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "recipe not found")
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Create(kind.row(actor.ID, recipeID)).Error
	if database.IsUniqueViolation(err) {
		return nil, newError(ErrConflict, "recipe is already added")
	}
	if err != nil {
		return nil, err
	}

	view := shortView(&recipe)
	return &view, nil
}

// Remove takes the recipe out of the actor's collection.
func (s *MembershipService) Remove(ctx context.Context, actor *models.User, kind MembershipKind, recipeID uint) (err error) {
	defer func() { metrics.MembershipToggles.WithLabelValues(string(kind), "remove", metrics.Result(err)).Inc() }()

	if actor == nil {
		return ErrUnauthenticated
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", actor.ID, recipeID).
		Delete(kind.model())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(ErrNotFound, "recipe is already removed")
	}
	return nil
}
