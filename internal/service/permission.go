package service

import "github.com/pageza/foodgram/backend/internal/models"

// Action is what an actor attempts on a resource.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Resource is anything with an owner. Catalog entries report owner 0.
type Resource interface {
	OwnerID() uint
}

// Authorize decides whether actor may perform action on resource. A nil
// actor is anonymous. For ActionCreate resource may be nil.
//
// Reads are public. Every mutation needs an authenticated actor, updates and
// deletes additionally need ownership or the admin role, and ownerless
// catalog resources are mutable by admins only.
func Authorize(actor *models.User, action Action, resource Resource) error {
	if action == ActionRead {
		return nil
	}
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}

	if resource != nil && resource.OwnerID() == 0 {
		return newError(ErrForbidden, "only administrators can modify the catalog")
	}

	switch action {
	case ActionCreate:
		return nil
	case ActionUpdate, ActionDelete:
		if resource != nil && resource.OwnerID() == actor.ID {
			return nil
		}
		return newError(ErrForbidden, "you do not have permission to perform this action")
	}
	return ErrForbidden
}
