package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/bid"
)

const bidColumns = `id, trip_id, driver_id, amount, note, status, created_at, updated_at`

// BidRepo is the PostgreSQL implementation of bid.Repository
type BidRepo struct {
	db *sql.DB
}

// NewBidRepo creates a bid repository backed by the given pool
func NewBidRepo(db *sql.DB) *BidRepo {
	return &BidRepo{db: db}
}

// Create inserts a new bid. One bid per driver per trip is enforced by
// the unique constraint, so two concurrent submissions cannot both land.
func (r *BidRepo) Create(ctx context.Context, b *bid.Bid) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bids (id, trip_id, driver_id, amount, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.TripID, b.DriverID, b.Amount, b.Note, b.Status, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err, "bids_trip_driver_key") {
		return bid.ErrDuplicateBid
	}
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// GetByID retrieves a bid by ID
func (r *BidRepo) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = $1
	`, id)
	var b bid.Bid
	err := row.Scan(&b.ID, &b.TripID, &b.DriverID, &b.Amount, &b.Note, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, bid.ErrBidNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bid: %w", err)
	}
	return &b, nil
}

// ListByTrip retrieves all bids on a trip, oldest first
func (r *BidRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]*bid.Bid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE trip_id = $1
		ORDER BY created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip bids: %w", err)
	}
	defer rows.Close()
	return collectBids(rows)
}

// ListByDriver retrieves a driver's bids, newest first
func (r *BidRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*bid.Bid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, driverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver bids: %w", err)
	}
	defer rows.Close()
	return collectBids(rows)
}

// MarkAccepted marks the winning bid
func (r *BidRepo) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, bid.StatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to mark bid accepted: %w", err)
	}
	return requireRow(res, bid.ErrBidNotFound)
}

// RejectOthers marks every other pending bid on the trip rejected
func (r *BidRepo) RejectOthers(ctx context.Context, tripID, acceptedID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bids
		SET status = $3, updated_at = NOW()
		WHERE trip_id = $1 AND id <> $2 AND status = $4
	`, tripID, acceptedID, bid.StatusRejected, bid.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to reject other bids: %w", err)
	}
	return nil
}

func collectBids(rows *sql.Rows) ([]*bid.Bid, error) {
	bids := make([]*bid.Bid, 0)
	for rows.Next() {
		var b bid.Bid
		if err := rows.Scan(&b.ID, &b.TripID, &b.DriverID, &b.Amount, &b.Note, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}
