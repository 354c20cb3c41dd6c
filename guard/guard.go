// Package guard holds the two checks every resource operation runs before it
// touches an entity: identifier format and ownership.
package guard

import (
	"github.com/google/uuid"

	"mini-planner/apperr"
)

// Owned is implemented by every entity that belongs to a user.
type Owned interface {
	OwnerID() string
}

// ValidID fails with InvalidIdentifier unless id is a canonical UUID string.
// Braced, URN and upper-case forms are rejected so the string compares equal
// to what the stores persist.
func ValidID(id string) error {
	if len(id) != 36 {
		return apperr.New(apperr.InvalidIdentifier)
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return apperr.New(apperr.InvalidIdentifier)
	}
	return nil
}

// Authorize fails with AccessDenied when callerID does not own entity.
// Call it only after the entity is known to exist.
func Authorize(callerID string, entity Owned) error {
	if entity == nil || callerID != entity.OwnerID() {
		return apperr.New(apperr.AccessDenied)
	}
	return nil
}
