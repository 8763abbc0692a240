package service

import (
	"context"
	"errors"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// UserService exposes user profiles as seen by another user.
type UserService struct {
	db      *gorm.DB
	project projector
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, project: projector{db: db}}
}

// ListUsers returns one page of users ordered by id.
func (s *UserService) ListUsers(ctx context.Context, viewer *models.User, page types.Page) ([]types.UserView, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Offset(page.Offset()).Limit(page.Size).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.project.users(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *UserService) GetUser(ctx context.Context, viewer *models.User, id uint) (*types.UserView, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	views, err := s.project.users(ctx, viewer, []models.User{user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
