package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// projector builds read models with a fixed number of queries per batch.
type projector struct {
	db *gorm.DB
}

type ingredientRow struct {
	RecipeID        uint
	ID              uint
	Name            string
	MeasurementUnit string
	Amount          int
}

// recipes projects recipes that were loaded with Author and Tags preloaded.
func (p projector) recipes(ctx context.Context, viewer *models.User, recipes []models.Recipe) ([]types.RecipeView, error) {
	if len(recipes) == 0 {
		return []types.RecipeView{}, nil
	}

	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var rows []ingredientRow
	err := p.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Where("ri.recipe_id IN ?", ids).
		Order("ri.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ingredients := make(map[uint][]types.IngredientAmountView, len(recipes))
	for _, row := range rows {
		ingredients[row.RecipeID] = append(ingredients[row.RecipeID], types.IngredientAmountView{
			ID:              row.ID,
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Amount:          row.Amount,
		})
	}

	favorites, err := p.memberSet(ctx, &models.Favorite{}, viewer, ids)
	if err != nil {
		return nil, err
	}
	carts, err := p.memberSet(ctx, &models.ShoppingCart{}, viewer, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.subscribedSet(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]types.RecipeView, len(recipes))
	for i, r := range recipes {
		view := types.RecipeView{
			ID:               r.ID,
			Tags:             tagViews(r.Tags),
			Ingredients:      ingredients[r.ID],
			IsFavorited:      favorites[r.ID],
			IsInShoppingCart: carts[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if view.Ingredients == nil {
			view.Ingredients = []types.IngredientAmountView{}
		}
		if r.Author != nil {
			view.Author = userView(r.Author, subscribed[r.AuthorID])
		}
		views[i] = view
	}
	return views, nil
}

// memberSet returns which of recipeIDs the viewer has in the favorites or cart table.
func (p projector) memberSet(ctx context.Context, model interface{}, viewer *models.User, recipeIDs []uint) (map[uint]bool, error) {
	set := map[uint]bool{}
	if viewer == nil || len(recipeIDs) == 0 {
		return set, nil
	}

	var found []uint
	err := p.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewer.ID, recipeIDs).
		Pluck("recipe_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// subscribedSet returns which of authorIDs the viewer follows.
func (p projector) subscribedSet(ctx context.Context, viewer *models.User, authorIDs []uint) (map[uint]bool, error) {
	set := map[uint]bool{}
	if viewer == nil || len(authorIDs) == 0 {
		return set, nil
	}

	var found []uint
	err := p.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewer.ID, authorIDs).
		Pluck("author_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// users projects users with the viewer's subscription flag.
func (p projector) users(ctx context.Context, viewer *models.User, users []models.User) ([]types.UserView, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.subscribedSet(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	views := make([]types.UserView, len(users))
	for i := range users {
		views[i] = userView(&users[i], subscribed[users[i].ID])
	}
	return views, nil
}

func userView(u *models.User, subscribed bool) types.UserView {
	return types.UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func tagViews(tags []models.Tag) []types.TagView {
	views := make([]types.TagView, len(tags))
	for i, t := range tags {
		views[i] = tagView(&t)
	}
	return views
}

func tagView(t *models.Tag) types.TagView {
	return types.TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i *models.Ingredient) types.IngredientView {
	return types.IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func shortView(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}
