package bid

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for bid data access
type Repository interface {
	// Create creates a new bid. Returns ErrDuplicateBid when the driver
	// already has a bid on the trip; uniqueness is enforced by the store.
	Create(ctx context.Context, bid *Bid) error

	// GetByID retrieves a bid by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Bid, error)

	// ListByTrip retrieves all bids on a trip, oldest first
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]*Bid, error)

	// ListByDriver retrieves a driver's bids, newest first
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*Bid, error)

	// MarkAccepted marks the winning bid
	MarkAccepted(ctx context.Context, id uuid.UUID) error

	// RejectOthers marks every other pending bid on the trip rejected
	RejectOthers(ctx context.Context, tripID, acceptedID uuid.UUID) error
}
