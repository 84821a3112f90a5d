package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent so the
// service can restart against an already-provisioned database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'rider',
		account_status TEXT NOT NULL DEFAULT 'active',
		driver_profile_exists BOOLEAN NOT NULL DEFAULT FALSE,
		driver_verified BOOLEAN NOT NULL DEFAULT FALSE,
		driver_status TEXT NOT NULL DEFAULT 'none',
		vehicle_category TEXT NOT NULL DEFAULT '',
		vehicle_reg TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		online BOOLEAN NOT NULL DEFAULT FALSE,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		trip_count INTEGER NOT NULL DEFAULT 0,
		force_rider_mode BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		rider_id UUID NOT NULL REFERENCES users(id),
		driver_id UUID REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'PENDING',
		vehicle_type TEXT NOT NULL,
		category TEXT NOT NULL,
		pickup_latitude DOUBLE PRECISION NOT NULL,
		pickup_longitude DOUBLE PRECISION NOT NULL,
		dropoff_latitude DOUBLE PRECISION NOT NULL,
		dropoff_longitude DOUBLE PRECISION NOT NULL,
		pickup_address TEXT NOT NULL DEFAULT '',
		dropoff_address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		proposed_price NUMERIC(10,2) NOT NULL,
		final_price NUMERIC(10,2),
		distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		guest_name TEXT NOT NULL DEFAULT '',
		guest_phone TEXT NOT NULL DEFAULT '',
		item_description TEXT NOT NULL DEFAULT '',
		needs_assistance BOOLEAN NOT NULL DEFAULT FALSE,
		cargo_photo_urls TEXT[] NOT NULL DEFAULT '{}',
		cancellation_reason TEXT NOT NULL DEFAULT '',
		cancelled_by TEXT NOT NULL DEFAULT '',
		accepted_at TIMESTAMPTZ,
		arrived_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS trips_rider_idx ON trips (rider_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS trips_driver_idx ON trips (driver_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS trips_open_city_idx ON trips (city, created_at)
		WHERE status IN ('PENDING', 'BIDDING')`,

	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id),
		driver_id UUID NOT NULL REFERENCES users(id),
		amount NUMERIC(10,2) NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT bids_trip_driver_key UNIQUE (trip_id, driver_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bids_trip_idx ON bids (trip_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id),
		rider_id UUID NOT NULL REFERENCES users(id),
		driver_id UUID NOT NULL REFERENCES users(id),
		rating DOUBLE PRECISION NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		comment TEXT NOT NULL DEFAULT '',
		favorite BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT reviews_trip_key UNIQUE (trip_id)
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_driver_idx ON reviews (driver_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		user_id UUID NOT NULL REFERENCES users(id),
		target_user_id UUID NOT NULL REFERENCES users(id),
		context TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, target_user_id, context)
	)`,

	`CREATE TABLE IF NOT EXISTS driver_locations (
		driver_id UUID PRIMARY KEY REFERENCES users(id),
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		city TEXT NOT NULL,
		online BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti TEXT PRIMARY KEY,
		user_id UUID NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS revoked_tokens_expiry_idx ON revoked_tokens (expires_at)`,
}

// Migrate creates the tables and indexes the service needs
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
