package location

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for durable location data access
type Repository interface {
	// Upsert stores the driver's latest position
	Upsert(ctx context.Context, loc *DriverLocation) error

	// GetByDriver retrieves the driver's last-known position
	GetByDriver(ctx context.Context, driverID uuid.UUID) (*DriverLocation, error)

	// SetOnline flips the durable availability flag for a driver
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error
}
