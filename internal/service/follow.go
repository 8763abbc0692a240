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

// FollowService manages subscriptions between users.
type FollowService struct {
	db      *gorm.DB
	project projector
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db, project: projector{db: db}}
}

// AllRecipes disables truncation of the recipes embedded in a FollowView.
const AllRecipes = -1

// Subscribe makes actor follow the author. recipesLimit bounds the recipes
// embedded in the response; AllRecipes keeps every one.
func (s *FollowService) Subscribe(ctx context.Context, actor *models.User, authorID uint, recipesLimit int) (view *types.FollowView, err error) {
	defer func() { metrics.MembershipToggles.WithLabelValues("follow", "add", metrics.Result(err)).Inc() }()

	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.ID == authorID {
		return nil, newError(ErrConflict, "you cannot subscribe to yourself")
	}

	var author models.User
	err = s.db.WithContext(ctx).First(&author, authorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Create(&models.Follow{UserID: actor.ID, AuthorID: authorID}).Error
	if database.IsUniqueViolation(err) {
		return nil, newError(ErrConflict, "you are already subscribed to this user")
	}
	if err != nil {
		return nil, err
	}

	views, err := s.followViews(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the follow edge from actor to the author.
func (s *FollowService) Unsubscribe(ctx context.Context, actor *models.User, authorID uint) (err error) {
	defer func() { metrics.MembershipToggles.WithLabelValues("follow", "remove", metrics.Result(err)).Inc() }()

	if actor == nil {
		return ErrUnauthenticated
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", actor.ID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(ErrNotFound, "you are not subscribed to this user")
	}
	return nil
}

// Subscriptions lists the authors actor follows, ordered by username.
func (s *FollowService) Subscriptions(ctx context.Context, actor *models.User, page types.Page, recipesLimit int) ([]types.FollowView, int64, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}

	followed := func() *gorm.DB {
		return s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", actor.ID)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)", followed()).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := s.db.WithContext(ctx).
		Where("id IN (?)", followed()).
		Order("username").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.followViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// followViews decorates authors followed by the viewer with their newest
// recipes and recipe counts.
func (s *FollowService) followViews(ctx context.Context, authors []models.User, recipesLimit int) ([]types.FollowView, error) {
	views := make([]types.FollowView, len(authors))
	if len(authors) == 0 {
		return views, nil
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	type countRow struct {
		AuthorID uint
		Total    int64
	}
	var counts []countRow
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[uint]int64, len(counts))
	for _, c := range counts {
		totals[c.AuthorID] = c.Total
	}

	var recipes []models.Recipe
	err = s.db.WithContext(ctx).
		Where("author_id IN ?", ids).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	byAuthor := make(map[uint][]types.RecipeShort, len(authors))
	for i := range recipes {
		r := &recipes[i]
		if recipesLimit >= 0 && len(byAuthor[r.AuthorID]) >= recipesLimit {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], shortView(r))
	}

	for i := range authors {
		a := &authors[i]
		shorts := byAuthor[a.ID]
		if shorts == nil {
			shorts = []types.RecipeShort{}
		}
		views[i] = types.FollowView{
			UserView:     userView(a, true),
			Recipes:      shorts,
			RecipesCount: totals[a.ID],
		}
	}
	return views, nil
}
