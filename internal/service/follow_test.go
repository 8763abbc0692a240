package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewFollowService(db)
	users := service.NewUserService(db)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	for _, name := range []string{"a1", "a2", "a3"} {
		testhelpers.CreateRecipe(t, db, alice, name, nil, testhelpers.Amount{Ingredient: salt, Amount: 1})
	}

	t.Run("self follow", func(t *testing.T) {
		_, err := svc.Subscribe(ctx, reader, reader.ID, 0)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := svc.Subscribe(ctx, reader, 9999, 0)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("subscribe", func(t *testing.T) {
		view, err := svc.Subscribe(ctx, reader, alice.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, view.ID)
		assert.True(t, view.IsSubscribed)
		assert.Equal(t, int64(3), view.RecipesCount)
		assert.Len(t, view.Recipes, 2)

		_, err = svc.Subscribe(ctx, reader, alice.ID, 0)
		assert.ErrorIs(t, err, service.ErrConflict)

		profile, err := users.GetUser(ctx, reader, alice.ID)
		require.NoError(t, err)
		assert.True(t, profile.IsSubscribed)

		back, err := users.GetUser(ctx, alice, reader.ID)
		require.NoError(t, err)
		assert.False(t, back.IsSubscribed, "follow edges are directed")
	})

	t.Run("subscriptions", func(t *testing.T) {
		_, err := svc.Subscribe(ctx, reader, bob.ID, 0)
		require.NoError(t, err)

		views, total, err := svc.Subscriptions(ctx, reader, types.Page{Number: 1, Size: 10}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, views, 2)
		assert.Equal(t, "alice", views[0].Username)
		assert.Len(t, views[0].Recipes, 1)
		assert.Equal(t, int64(3), views[0].RecipesCount)
		assert.Equal(t, "bob", views[1].Username)
		assert.Empty(t, views[1].Recipes)
		assert.NotNil(t, views[1].Recipes)

		views, _, err = svc.Subscriptions(ctx, reader, types.Page{Number: 1, Size: 10}, service.AllRecipes)
		require.NoError(t, err)
		assert.Len(t, views[0].Recipes, 3)

		views, _, err = svc.Subscriptions(ctx, reader, types.Page{Number: 1, Size: 10}, 0)
		require.NoError(t, err)
		assert.Empty(t, views[0].Recipes)
		assert.NotNil(t, views[0].Recipes)
		assert.Equal(t, int64(3), views[0].RecipesCount)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		require.NoError(t, svc.Unsubscribe(ctx, reader, bob.ID))
		assert.ErrorIs(t, svc.Unsubscribe(ctx, reader, bob.ID), service.ErrNotFound)

		_, total, err := svc.Subscriptions(ctx, reader, types.Page{Number: 1, Size: 10}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Subscribe(ctx, nil, alice.ID, 0)
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
		_, _, err = svc.Subscriptions(ctx, nil, types.Page{Number: 1, Size: 10}, 0)
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})
}
