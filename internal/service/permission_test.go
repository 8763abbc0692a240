package service

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.RoleUser}
	stranger := &models.User{ID: 2, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}
	superuser := &models.User{ID: 4, IsSuperuser: true}
	recipe := models.Recipe{AuthorID: owner.ID}
	tag := models.Tag{}

	tests := []struct {
		name     string
		actor    *models.User
		action   Action
		resource Resource
		want     error
	}{
		{"anonymous read", nil, ActionRead, recipe, nil},
		{"anonymous create", nil, ActionCreate, nil, ErrUnauthenticated},
		{"anonymous delete", nil, ActionDelete, recipe, ErrUnauthenticated},
		{"user create recipe", stranger, ActionCreate, nil, nil},
		{"owner update", owner, ActionUpdate, recipe, nil},
		{"owner delete", owner, ActionDelete, recipe, nil},
		{"stranger update", stranger, ActionUpdate, recipe, ErrForbidden},
		{"stranger delete", stranger, ActionDelete, recipe, ErrForbidden},
		{"admin update", admin, ActionUpdate, recipe, nil},
		{"superuser delete", superuser, ActionDelete, recipe, nil},
		{"user create tag", owner, ActionCreate, tag, ErrForbidden},
		{"user read tag", owner, ActionRead, tag, nil},
		{"admin create tag", admin, ActionCreate, tag, nil},
		{"admin update ingredient", admin, ActionUpdate, models.Ingredient{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.resource)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := newError(ErrConflict, "recipe is already added")
	assert.Equal(t, "recipe is already added", err.Error())
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "not found", (&Error{Kind: ErrNotFound}).Error())

	verr := &ValidationError{}
	assert.NoError(t, verr.Err())
	verr.Add("tags", "must not contain duplicates")
	verr.Add("name", "This field is required.")
	assert.Equal(t, "invalid input: name: This field is required., tags: must not contain duplicates", verr.Error())
}
