package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for review data access
type Repository interface {
	// Create creates a new review. Returns ErrDuplicateReview when the
	// trip already has one; uniqueness is enforced by the store.
	Create(ctx context.Context, review *Review) error

	// GetByTrip retrieves the review for a trip
	GetByTrip(ctx context.Context, tripID uuid.UUID) (*Review, error)

	// ListByDriver retrieves reviews of a driver, newest first
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*Review, error)

	// AggregateByDriver computes the unweighted mean rating and count
	AggregateByDriver(ctx context.Context, driverID uuid.UUID) (avg float64, count int, err error)
}
