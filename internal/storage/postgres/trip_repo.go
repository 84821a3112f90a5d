package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rideinzw/dispatch/internal/domain/trip"
)

const tripColumns = `id, rider_id, driver_id, status, vehicle_type, category,
	pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
	pickup_address, dropoff_address, city, proposed_price, final_price,
	distance_km, duration_minutes, note, guest_name, guest_phone,
	item_description, needs_assistance, cargo_photo_urls,
	cancellation_reason, cancelled_by,
	accepted_at, arrived_at, started_at, completed_at, cancelled_at,
	created_at, updated_at`

// TripRepo is the PostgreSQL implementation of trip.Repository. The
// lifecycle writes are single conditional UPDATEs so that concurrent
// transitions race on the row guard instead of on application state.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo creates a trip repository backed by the given pool
func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

// Create inserts a new trip
func (r *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (
			id, rider_id, status, vehicle_type, category,
			pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
			pickup_address, dropoff_address, city, proposed_price,
			distance_km, duration_minutes, note, guest_name, guest_phone,
			item_description, needs_assistance, cargo_photo_urls,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`,
		t.ID, t.RiderID, t.Status, t.VehicleType, t.Category,
		t.PickupLatitude, t.PickupLongitude, t.DropoffLatitude, t.DropoffLongitude,
		t.PickupAddress, t.DropoffAddress, t.City, t.ProposedPrice,
		t.DistanceKM, t.DurationMinutes, t.Note, t.GuestName, t.GuestPhone,
		t.ItemDescription, t.NeedsAssistance, pq.Array(t.CargoPhotoURLs),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepo) GetByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE id = $1
	`, id)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, trip.ErrTripNotFound
	}
	return t, err
}

// ListByRider retrieves a rider's trips, newest first
func (r *TripRepo) ListByRider(ctx context.Context, riderID uuid.UUID, limit, offset int) ([]*trip.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE rider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, riderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list rider trips: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

// ListByDriver retrieves a driver's assigned trips, newest first
func (r *TripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*trip.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, driverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver trips: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

// ActiveByRider retrieves the rider's current non-terminal trip. It
// returns (nil, nil) when the rider has none.
func (r *TripRepo) ActiveByRider(ctx context.Context, riderID uuid.UUID) (*trip.Trip, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE rider_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`, riderID, pq.Array(statusStrings(trip.ActiveStatuses)))
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ActiveByDriver retrieves the driver's current non-terminal trip. It
// returns (nil, nil) when the driver has none.
func (r *TripRepo) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*trip.Trip, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`, driverID, pq.Array(statusStrings(trip.ActiveStatuses)))
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListOpenByCity retrieves open trips in a city, oldest first. A
// non-empty categories slice narrows the result to those classes.
func (r *TripRepo) ListOpenByCity(ctx context.Context, city string, categories []trip.Category) ([]*trip.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE city = $1 AND status = ANY($2)`
	args := []interface{}{city, pq.Array(statusStrings(trip.OpenStatuses))}
	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, c := range categories {
			cats[i] = string(c)
		}
		query += ` AND category = ANY($3)`
		args = append(args, pq.Array(cats))
	}
	query += `
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list open trips: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

// MarkBidding moves a PENDING trip to BIDDING. The guard makes it a
// no-op when the trip already left PENDING.
func (r *TripRepo) MarkBidding(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE trips
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, trip.StatusBidding, trip.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark trip bidding: %w", err)
	}
	return nil
}

// Accept atomically assigns the driver and final price to an open
// trip. The status guard means that when two acceptances race, exactly
// one UPDATE matches the row; the other sees zero rows and gets
// ErrTripNotOpen.
func (r *TripRepo) Accept(ctx context.Context, id, driverID uuid.UUID, finalPrice float64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips
		SET status = $2, driver_id = $3, final_price = $4, accepted_at = $5, updated_at = $5
		WHERE id = $1 AND status = ANY($6)
	`, id, trip.StatusAccepted, driverID, finalPrice, at, pq.Array(statusStrings(trip.OpenStatuses)))
	if err != nil {
		return fmt.Errorf("failed to accept trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return trip.ErrTripNotOpen
	}
	return nil
}

// UpdateStatusGuard moves the trip to the given status only when its
// current status is in allowedFrom, stamping the matching timestamp in
// the same statement. A zero-row result means another writer got
// there first.
func (r *TripRepo) UpdateStatusGuard(ctx context.Context, id uuid.UUID, to trip.Status, allowedFrom []trip.Status, at time.Time) error {
	stamp := ""
	switch to {
	case trip.StatusArrived:
		stamp = ", arrived_at = $3"
	case trip.StatusStarted:
		stamp = ", started_at = $3"
	case trip.StatusCompleted:
		stamp = ", completed_at = $3"
	}
	query := fmt.Sprintf(`
		UPDATE trips
		SET status = $2%s, updated_at = $3
		WHERE id = $1 AND status = ANY($4)
	`, stamp)

	res, err := r.db.ExecContext(ctx, query, id, to, at, pq.Array(statusStrings(allowedFrom)))
	if err != nil {
		return fmt.Errorf("failed to update trip status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return trip.ErrStatusConflict
	}
	return nil
}

// Cancel atomically cancels the trip while it is still cancellable
func (r *TripRepo) Cancel(ctx context.Context, id uuid.UUID, reason, cancelledBy string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips
		SET status = $2, cancellation_reason = $3, cancelled_by = $4, cancelled_at = $5, updated_at = $5
		WHERE id = $1 AND status = ANY($6)
	`, id, trip.StatusCancelled, reason, cancelledBy, at, pq.Array(statusStrings(trip.CancellableStatuses)))
	if err != nil {
		return fmt.Errorf("failed to cancel trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return trip.ErrStatusConflict
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(s scanner) (*trip.Trip, error) {
	var (
		t          trip.Trip
		driverID   uuid.NullUUID
		finalPrice sql.NullFloat64
		photos     pq.StringArray
		acceptedAt sql.NullTime
		arrivedAt  sql.NullTime
		startedAt  sql.NullTime
		doneAt     sql.NullTime
		cancAt     sql.NullTime
	)
	err := s.Scan(
		&t.ID, &t.RiderID, &driverID, &t.Status, &t.VehicleType, &t.Category,
		&t.PickupLatitude, &t.PickupLongitude, &t.DropoffLatitude, &t.DropoffLongitude,
		&t.PickupAddress, &t.DropoffAddress, &t.City, &t.ProposedPrice, &finalPrice,
		&t.DistanceKM, &t.DurationMinutes, &t.Note, &t.GuestName, &t.GuestPhone,
		&t.ItemDescription, &t.NeedsAssistance, &photos,
		&t.CancellationReason, &t.CancelledBy,
		&acceptedAt, &arrivedAt, &startedAt, &doneAt, &cancAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trip: %w", err)
	}

	if driverID.Valid {
		t.DriverID = &driverID.UUID
	}
	if finalPrice.Valid {
		t.FinalPrice = &finalPrice.Float64
	}
	t.CargoPhotoURLs = photos
	t.AcceptedAt = timePtr(acceptedAt)
	t.ArrivedAt = timePtr(arrivedAt)
	t.StartedAt = timePtr(startedAt)
	t.CompletedAt = timePtr(doneAt)
	t.CancelledAt = timePtr(cancAt)
	return &t, nil
}

func collectTrips(rows *sql.Rows) ([]*trip.Trip, error) {
	trips := make([]*trip.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

func statusStrings(statuses []trip.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
