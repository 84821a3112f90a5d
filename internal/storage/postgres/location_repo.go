package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/location"
)

// LocationRepo is the PostgreSQL implementation of location.Repository.
// It holds the durable last-known position; the hot copy used for
// matching lives in Redis.
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo creates a location repository backed by the given pool
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// Upsert stores the driver's latest position
func (r *LocationRepo) Upsert(ctx context.Context, loc *location.DriverLocation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO driver_locations (driver_id, latitude, longitude, city, online, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (driver_id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			city = EXCLUDED.city,
			online = EXCLUDED.online,
			updated_at = EXCLUDED.updated_at
	`, loc.DriverID, loc.Latitude, loc.Longitude, loc.City, loc.Online, loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert driver location: %w", err)
	}
	return nil
}

// GetByDriver retrieves the driver's last-known position
func (r *LocationRepo) GetByDriver(ctx context.Context, driverID uuid.UUID) (*location.DriverLocation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT driver_id, latitude, longitude, city, online, updated_at
		FROM driver_locations
		WHERE driver_id = $1
	`, driverID)
	var loc location.DriverLocation
	err := row.Scan(&loc.DriverID, &loc.Latitude, &loc.Longitude, &loc.City, &loc.Online, &loc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, location.ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan driver location: %w", err)
	}
	return &loc, nil
}

// SetOnline flips the durable availability flag for a driver. Flipping
// a driver who never reported a position is a no-op.
func (r *LocationRepo) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE driver_locations
		SET online = $2, updated_at = NOW()
		WHERE driver_id = $1
	`, driverID, online)
	if err != nil {
		return fmt.Errorf("failed to set location online flag: %w", err)
	}
	return nil
}
