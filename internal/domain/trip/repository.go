package trip

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for trip data access
type Repository interface {
	// Create creates a new trip
	Create(ctx context.Context, trip *Trip) error

	// GetByID retrieves a trip by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Trip, error)

	// ListByRider retrieves a rider's trips, newest first
	ListByRider(ctx context.Context, riderID uuid.UUID, limit, offset int) ([]*Trip, error)

	// ListByDriver retrieves a driver's assigned trips, newest first
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*Trip, error)

	// ActiveByRider retrieves the rider's current non-terminal trip, if any
	ActiveByRider(ctx context.Context, riderID uuid.UUID) (*Trip, error)

	// ActiveByDriver retrieves the driver's current non-terminal trip, if any
	ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*Trip, error)

	// ListOpenByCity retrieves open trips in a city, oldest first
	ListOpenByCity(ctx context.Context, city string, categories []Category) ([]*Trip, error)

	// MarkBidding moves a PENDING trip to BIDDING. It is a no-op when the
	// trip already left PENDING.
	MarkBidding(ctx context.Context, id uuid.UUID) error

	// Accept atomically assigns the driver and final price to an open
	// trip. Returns ErrTripNotOpen when the trip already left the open
	// states, so exactly one concurrent acceptance can win.
	Accept(ctx context.Context, id, driverID uuid.UUID, finalPrice float64, at time.Time) error

	// UpdateStatusGuard moves the trip to the given status only when its
	// current status is in allowedFrom, stamping the matching timestamp.
	// Returns ErrStatusConflict when the guard does not match.
	UpdateStatusGuard(ctx context.Context, id uuid.UUID, to Status, allowedFrom []Status, at time.Time) error

	// Cancel atomically cancels the trip while it is still cancellable.
	// Returns ErrStatusConflict when it is not.
	Cancel(ctx context.Context, id uuid.UUID, reason, cancelledBy string, at time.Time) error
}
