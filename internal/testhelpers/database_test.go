package testhelpers

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSQLiteIsIsolated(t *testing.T) {
	first := SetupSQLite(t)
	second := SetupSQLite(t)

	CreateUser(t, first, "alice")

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeFixture(t *testing.T) {
	db := SetupSQLite(t)
	author := CreateUser(t, db, "alice")
	tag := CreateTag(t, db, "Dinner", "#8775D2", "dinner")
	flour := CreateIngredient(t, db, "flour", "g")

	recipe := CreateRecipe(t, db, author, "bread", []*models.Tag{tag}, Amount{Ingredient: flour, Amount: 500})

	var loaded models.Recipe
	require.NoError(t, db.Preload("Tags").Preload("Ingredients").First(&loaded, recipe.ID).Error)
	assert.Equal(t, author.ID, loaded.AuthorID)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "dinner", loaded.Tags[0].Slug)
	require.Len(t, loaded.Ingredients, 1)
	assert.Equal(t, 500, loaded.Ingredients[0].Amount)
}

func TestCreateAdmin(t *testing.T) {
	db := SetupSQLite(t)
	admin := CreateAdmin(t, db, "root")

	var loaded models.User
	require.NoError(t, db.First(&loaded, admin.ID).Error)
	assert.True(t, loaded.IsAdmin())
}
