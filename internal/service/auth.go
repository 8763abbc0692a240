package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "foodgram"

type AuthService struct {
	db         *gorm.DB
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
	validate   *validator.Validate
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		validate:   newValidator(),
	}
}

// WithBcryptCost lowers the hashing cost in tests.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, in *types.RegisterRequest) (*types.UserView, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	verr := validateStruct(s.validate, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, in, models.RoleUser, false)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	view := userView(user, false)
	return &view, nil
}

// CreateSuperuser creates an account with full administrative rights.
func (s *AuthService) CreateSuperuser(ctx context.Context, in *types.RegisterRequest) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(s.validate, in).Err(); err != nil {
		return nil, err
	}
	return s.createUser(ctx, in, models.RoleAdmin, true)
}

func (s *AuthService) createUser(ctx context.Context, in *types.RegisterRequest, role string, superuser bool) (*models.User, error) {
	verr := &ValidationError{}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("email", "a user with this email already exists")
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("username", "a user with this username already exists")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		Role:         role,
		IsSuperuser:  superuser,
	}
	err = s.db.WithContext(ctx).Create(user).Error
	if database.IsUniqueViolation(err) {
		// lost a race with a concurrent registration
		return nil, fieldError("non_field_errors", "a user with this email or username already exists")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.GenerateToken(&user)
}

// GenerateToken signs an HS256 token for user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, newError(ErrUnauthenticated, "invalid token")
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, newError(ErrUnauthenticated, "invalid token")
	}
	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword changes the actor's password after checking the current one.
func (s *AuthService) SetPassword(ctx context.Context, actor *models.User, in *types.SetPasswordRequest) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	verr := validateStruct(s.validate, in)
	if in.CurrentPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			verr.Add("current_password", "invalid password")
		}
	}
	if err := verr.Err(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(actor).Update("password_hash", string(hash)).Error; err != nil {
		return err
	}
	actor.PasswordHash = string(hash)
	return nil
}
