package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CatalogService serves the admin managed tags and ingredients.
type CatalogService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db, validate: newValidator()}
}

// ListIngredients returns ingredients whose name starts with prefix, ignoring case.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error) {
	query := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeEscaper.Replace(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}

	views := make([]types.IngredientView, len(ingredients))
	for i := range ingredients {
		views[i] = ingredientView(&ingredients[i])
	}
	return views, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientView, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "ingredient not found")
	}
	if err != nil {
		return nil, err
	}
	view := ingredientView(&ingredient)
	return &view, nil
}

// CreateIngredient adds an ingredient to the catalog. Admins only.
func (s *CatalogService) CreateIngredient(ctx context.Context, actor *models.User, in *types.IngredientInput) (*types.IngredientView, error) {
	if err := Authorize(actor, ActionCreate, models.Ingredient{}); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in).Err(); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{
		Name:            strings.TrimSpace(in.Name),
		MeasurementUnit: strings.TrimSpace(in.MeasurementUnit),
	}
	err := s.db.WithContext(ctx).Create(ingredient).Error
	if database.IsUniqueViolation(err) {
		return nil, fieldError("name", "ingredient with this name and measurement unit already exists")
	}
	if err != nil {
		return nil, err
	}

	view := ingredientView(ingredient)
	return &view, nil
}

// UpdateIngredient replaces the name and unit of an ingredient. Admins only.
func (s *CatalogService) UpdateIngredient(ctx context.Context, actor *models.User, id uint, in *types.IngredientInput) (*types.IngredientView, error) {
	if err := Authorize(actor, ActionUpdate, models.Ingredient{}); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in).Err(); err != nil {
		return nil, err
	}

	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "ingredient not found")
	}
	if err != nil {
		return nil, err
	}

	ingredient.Name = strings.TrimSpace(in.Name)
	ingredient.MeasurementUnit = strings.TrimSpace(in.MeasurementUnit)
	err = s.db.WithContext(ctx).Save(&ingredient).Error
	if database.IsUniqueViolation(err) {
		return nil, fieldError("name", "ingredient with this name and measurement unit already exists")
	}
	if err != nil {
		return nil, err
	}

	view := ingredientView(&ingredient)
	return &view, nil
}

// DeleteIngredient removes an ingredient no recipe uses. Admins only.
func (s *CatalogService) DeleteIngredient(ctx context.Context, actor *models.User, id uint) error {
	if err := Authorize(actor, ActionDelete, models.Ingredient{}); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Ingredient{}, id)
	if database.IsForeignKeyViolation(result.Error) {
		return newError(ErrConflict, "ingredient is used by recipes")
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(ErrNotFound, "ingredient not found")
	}
	return nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagView, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tagViews(tags), nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagView, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "tag not found")
	}
	if err != nil {
		return nil, err
	}
	view := tagView(&tag)
	return &view, nil
}

// CreateTag adds a tag. Admins only. Name, color and slug are each unique.
func (s *CatalogService) CreateTag(ctx context.Context, actor *models.User, in *types.TagInput) (*types.TagView, error) {
	if err := Authorize(actor, ActionCreate, models.Tag{}); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in).Err(); err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: in.Name, Color: strings.ToUpper(in.Color), Slug: in.Slug}
	err := s.db.WithContext(ctx).Create(tag).Error
	if database.IsUniqueViolation(err) {
		return nil, fieldError("non_field_errors", "tag with this name, color or slug already exists")
	}
	if err != nil {
		return nil, err
	}

	view := tagView(tag)
	return &view, nil
}

// UpdateTag replaces the name, color and slug of a tag. Admins only.
func (s *CatalogService) UpdateTag(ctx context.Context, actor *models.User, id uint, in *types.TagInput) (*types.TagView, error) {
	if err := Authorize(actor, ActionUpdate, models.Tag{}); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in).Err(); err != nil {
		return nil, err
	}

	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "tag not found")
	}
	if err != nil {
		return nil, err
	}

	tag.Name, tag.Color, tag.Slug = in.Name, strings.ToUpper(in.Color), in.Slug
	err = s.db.WithContext(ctx).Save(&tag).Error
	if database.IsUniqueViolation(err) {
		return nil, fieldError("non_field_errors", "tag with this name, color or slug already exists")
	}
	if err != nil {
		return nil, err
	}

	view := tagView(&tag)
	return &view, nil
}

// DeleteTag removes a tag no recipe carries. Admins only. Recipes need at
// least one tag, so a tag in use is refused instead of being unlinked.
func (s *CatalogService) DeleteTag(ctx context.Context, actor *models.User, id uint) error {
	if err := Authorize(actor, ActionDelete, models.Tag{}); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		err := tx.First(&tag, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "tag not found")
		}
		if err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&models.RecipeTag{}).Where("tag_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return newError(ErrConflict, "tag is used by recipes")
		}

		err = tx.Delete(&tag).Error
		if database.IsForeignKeyViolation(err) {
			return newError(ErrConflict, "tag is used by recipes")
		}
		return err
	})
}
