package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db       *gorm.DB
	images   ImageStore
	validate *validator.Validate
	project  projector
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{
		db:       db,
		images:   images,
		validate: newValidator(),
		project:  projector{db: db},
	}
}

// Create stores a new recipe authored by actor.
func (s *RecipeService) Create(ctx context.Context, actor *models.User, in *types.RecipeInput) (view *types.RecipeView, err error) {
	defer func() { metrics.RecipeMutations.WithLabelValues("create", metrics.Result(err)).Inc() }()

	if err := Authorize(actor, ActionCreate, nil); err != nil {
		return nil, err
	}

	img, err := s.validateInput(in, true)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Save(ctx, newImageName(img), img.ContentType, img.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	recipe := &models.Recipe{AuthorID: actor.ID, Image: url}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveRecipe(tx, recipe, in, true)
	})
	if err != nil {
		s.discardImage(ctx, url)
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", actor.ID).Msg("recipe created")
	return s.Get(ctx, actor, recipe.ID)
}

// Update replaces every field of a recipe. The image is kept when omitted.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, id uint, in *types.RecipeInput) (view *types.RecipeView, err error) {
	defer func() { metrics.RecipeMutations.WithLabelValues("update", metrics.Result(err)).Inc() }()

	if actor == nil {
		return nil, ErrUnauthenticated
	}
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionUpdate, recipe); err != nil {
		return nil, err
	}

	img, err := s.validateInput(in, false)
	if err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	if img != nil {
		url, err := s.images.Save(ctx, newImageName(img), img.ContentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		recipe.Image = url
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveRecipe(tx, recipe, in, false)
	})
	if err != nil {
		if img != nil {
			s.discardImage(ctx, recipe.Image)
		}
		return nil, err
	}
	if img != nil {
		s.discardImage(ctx, oldImage)
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("actor_id", actor.ID).Msg("recipe updated")
	return s.Get(ctx, actor, recipe.ID)
}

// Delete removes a recipe with its ingredient rows, tags and memberships.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, id uint) (err error) {
	defer func() { metrics.RecipeMutations.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	if actor == nil {
		return ErrUnauthenticated
	}
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, ActionDelete, recipe); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.RecipeIngredient{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCart{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.discardImage(ctx, recipe.Image)
	logging.Ctx(ctx).Info().Uint("recipe_id", id).Uint("actor_id", actor.ID).Msg("recipe deleted")
	return nil
}

// Get returns the projection of one recipe for viewer, who may be nil.
func (s *RecipeService) Get(ctx context.Context, viewer *models.User, id uint) (*types.RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Preload("Author").Preload("Tags").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "recipe not found")
	}
	if err != nil {
		return nil, err
	}

	views, err := s.project.recipes(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of recipes matching filter, newest first, and the
// total number of matches.
func (s *RecipeService) List(ctx context.Context, viewer *models.User, filter types.RecipeFilter, page types.Page) ([]types.RecipeView, int64, error) {
	scope := s.filterScope(viewer, filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Preload("Author").
		Preload("Tags").
		Order("recipes.created_at DESC").
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.project.recipes(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// filterScope restricts recipes by author, any of the tag slugs and the
// viewer's favorites or cart. Membership filters are ignored for anonymous
// viewers.
func (s *RecipeService) filterScope(viewer *models.User, filter types.RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			db = db.Where("recipes.id IN (?)", s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if viewer != nil && filter.IsFavorited {
			db = db.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).
				Select("recipe_id").
				Where("user_id = ?", viewer.ID))
		}
		if viewer != nil && filter.IsInShoppingCart {
			db = db.Where("recipes.id IN (?)", s.db.Model(&models.ShoppingCart{}).
				Select("recipe_id").
				Where("user_id = ?", viewer.ID))
		}
		return db
	}
}

func (s *RecipeService) load(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "recipe not found")
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// validateInput checks every field and decodes the image. The returned image
// is nil on update when none was sent.
func (s *RecipeService) validateInput(in *types.RecipeInput, creating bool) (*Image, error) {
	verr := validateStruct(s.validate, in)

	var img *Image
	switch {
	case in.Image != "":
		decoded, err := DecodeImage(in.Image)
		if err != nil {
			verr.Add("image", err.Error())
		}
		img = decoded
	case creating:
		verr.Add("image", "This field is required.")
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// saveRecipe writes the scalar fields, replaces the ingredient rows and the
// tag set of recipe. It must run inside a transaction: on any error the
// caller rolls everything back.
func saveRecipe(tx *gorm.DB, recipe *models.Recipe, in *types.RecipeInput, creating bool) error {
	if err := checkReferences(tx, in); err != nil {
		return err
	}

	recipe.Name = in.Name
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime

	if creating {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
	} else {
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
	}

	items := make([]models.RecipeIngredient, len(in.Ingredients))
	for i, item := range in.Ingredients {
		items[i] = models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to save ingredients: %w", err)
	}

	tags := make([]models.RecipeTag, len(in.Tags))
	for i, id := range in.Tags {
		tags[i] = models.RecipeTag{RecipeID: recipe.ID, TagID: id}
	}
	if err := tx.Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}

// checkReferences reports unknown ingredient and tag ids as field errors.
func checkReferences(tx *gorm.DB, in *types.RecipeInput) error {
	verr := &ValidationError{}

	ingredientIDs := make([]uint, len(in.Ingredients))
	for i, item := range in.Ingredients {
		ingredientIDs[i] = item.ID
	}
	missing, err := missingIDs(tx, &models.Ingredient{}, ingredientIDs)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
	}

	missing, err = missingIDs(tx, &models.Tag{}, in.Tags)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("tags", fmt.Sprintf("tag %d does not exist", id))
	}

	return verr.Err()
}

func missingIDs(tx *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	var found []uint
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}

	var missing []uint
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// discardImage removes a stored image; failures only leave an orphan file.
func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("failed to delete recipe image")
	}
}
