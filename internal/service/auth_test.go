package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) *service.AuthService {
	db := testhelpers.SetupSQLite(t)
	return service.NewAuthService(db, "test-secret", time.Hour).WithBcryptCost(bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &types.RegisterRequest{
		Email:     "Chef@Example.com",
		Username:  "chef",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "bon-appetit-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", user.Email)
	assert.False(t, user.IsSubscribed)

	token, err := svc.Login(ctx, "chef@example.com", "bon-appetit-1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "chef", claims.Username)

	_, err = svc.Login(ctx, "chef@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "bon-appetit-1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &types.RegisterRequest{Email: "a@example.com", Username: "alpha", Password: "password-1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &types.RegisterRequest{Email: "A@example.com", Username: "alpha", Password: "password-1"})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "username")

	_, err = svc.Register(ctx, &types.RegisterRequest{Email: "not-an-email", Username: "bad name", Password: "short"})
	fields = fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newAuthService(t)
	user := &models.User{ID: 7, Username: "seven"}

	other := service.NewAuthService(nil, "other-secret", time.Hour)
	foreign, err := other.GenerateToken(user)
	require.NoError(t, err)

	expired, err := service.NewAuthService(nil, "test-secret", -time.Minute).GenerateToken(user)
	require.NoError(t, err)

	noIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "invalid.token",
		"wrong secret": foreign,
		"expired":      expired,
		"no issuer":    noIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.ValidateToken(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, service.ErrUnauthenticated)
		})
	}
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour).WithBcryptCost(bcrypt.MinCost)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "cook")

	err := svc.SetPassword(ctx, user, &types.SetPasswordRequest{NewPassword: "brand-new-pass", CurrentPassword: "nope"})
	assert.Contains(t, fieldErrors(t, err), "current_password")

	require.NoError(t, svc.SetPassword(ctx, user, &types.SetPasswordRequest{
		NewPassword:     "brand-new-pass",
		CurrentPassword: testhelpers.TestPassword,
	}))

	_, err = svc.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, user.Email, "brand-new-pass")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, nil, &types.SetPasswordRequest{}), service.ErrUnauthenticated)
}

func TestCreateSuperuser(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour).WithBcryptCost(bcrypt.MinCost)

	admin, err := svc.CreateSuperuser(context.Background(), &types.RegisterRequest{
		Email: "root@example.com", Username: "root", Password: "super-secret-1",
	})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsSuperuser)
}
