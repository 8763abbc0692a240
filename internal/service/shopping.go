package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// ShoppingService builds the downloadable shopping list of a user's cart.
type ShoppingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db, now: time.Now}
}

// WithClock replaces the clock used for the list date.
func (s *ShoppingService) WithClock(now func() time.Time) *ShoppingService {
	s.now = now
	return s
}

// Aggregate sums the amounts of every ingredient over the recipes in the
// user's cart, one line per (name, unit), ordered by name then unit.
func (s *ShoppingService) Aggregate(ctx context.Context, user *models.User) ([]types.ShoppingItem, error) {
	var inCart int64
	if err := s.db.WithContext(ctx).Model(&models.ShoppingCart{}).Where("user_id = ?", user.ID).Count(&inCart).Error; err != nil {
		return nil, err
	}
	if inCart == 0 {
		return nil, newError(ErrEmptyCart, "shopping cart is empty")
	}

	var items []types.ShoppingItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS total_amount").
		Joins("JOIN shopping_carts AS sc ON sc.recipe_id = ri.recipe_id").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Where("sc.user_id = ?", user.ID).
		Group("i.id, i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return items, nil
}

// Render formats the list as plain text.
func Render(user *models.User, items []types.ShoppingItem, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for: %s\n\n", user.FullName())
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("2006-01-02"))

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("- %s (%s) - %d", item.Name, item.MeasurementUnit, item.TotalAmount)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// Download returns the attachment file name and the rendered list.
func (s *ShoppingService) Download(ctx context.Context, user *models.User) (filename, body string, err error) {
	defer func() { metrics.ShoppingListDownloads.WithLabelValues(metrics.Result(err)).Inc() }()

	if user == nil {
		return "", "", ErrUnauthenticated
	}

	items, err := s.Aggregate(ctx, user)
	if err != nil {
		return "", "", err
	}
	return user.Username + "_shopping_list.txt", Render(user, items, s.now()), nil
}
