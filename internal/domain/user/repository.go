package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates a user's profile fields
	Update(ctx context.Context, user *User) error

	// UpdateAccountStatus updates the moderation state
	UpdateAccountStatus(ctx context.Context, id uuid.UUID, status AccountStatus) error

	// SaveDriverProfile files the vehicle profile and resets the
	// approval state to pending
	SaveDriverProfile(ctx context.Context, id uuid.UUID, category, reg string) error

	// UpdateDriverStatus records the approval decision. Approval also
	// marks the documents verified.
	UpdateDriverStatus(ctx context.Context, id uuid.UUID, status DriverStatus) error

	// SetOnline toggles driver presence
	SetOnline(ctx context.Context, id uuid.UUID, online bool) error

	// SetForceRiderMode toggles forced rider mode on a driver
	SetForceRiderMode(ctx context.Context, id uuid.UUID, forced bool) error

	// UpdateRating stores a recomputed rating aggregate
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error

	// IncrementTripCount bumps the completed trip counter
	IncrementTripCount(ctx context.Context, id uuid.UUID) error
}
