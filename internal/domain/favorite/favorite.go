package favorite

import (
	"time"

	"github.com/google/uuid"
)

// Context says in which role the target was saved. A rider saves
// drivers; the symmetric direction exists so a driver can save
// regular customers.
type Context string

const (
	ContextDriver Context = "driver"
	ContextRider  Context = "rider"
)

// Favorite marks a user somebody wants to ride with again. One row
// per (user, target, context) tuple.
type Favorite struct {
	UserID       uuid.UUID `json:"user_id"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	Context      Context   `json:"context"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsValid validates the context
func (c Context) IsValid() bool {
	switch c {
	case ContextDriver, ContextRider:
		return true
	}
	return false
}
