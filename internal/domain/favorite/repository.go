package favorite

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for favorite data access
type Repository interface {
	// Add saves the target in the given context. Adding twice is a no-op.
	Add(ctx context.Context, userID, targetID uuid.UUID, fctx Context) error

	// Remove unsaves the target. Removing a non-favorite is a no-op.
	Remove(ctx context.Context, userID, targetID uuid.UUID, fctx Context) error

	// Exists reports whether the target is saved by the user
	Exists(ctx context.Context, userID, targetID uuid.UUID, fctx Context) (bool, error)

	// ListByUser retrieves the user's favorites in a context, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, fctx Context) ([]*Favorite, error)
}
