package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rideinzw/dispatch/internal/domain/review"
)

const reviewColumns = `id, trip_id, rider_id, driver_id, rating, tags, comment, favorite, created_at`

// ReviewRepo is the PostgreSQL implementation of review.Repository
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo creates a review repository backed by the given pool
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Create inserts a new review. One review per trip is enforced by the
// unique constraint.
func (r *ReviewRepo) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, trip_id, rider_id, driver_id, rating, tags, comment, favorite, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rv.ID, rv.TripID, rv.RiderID, rv.DriverID, rv.Rating, pq.Array(rv.Tags), rv.Comment, rv.Favorite, rv.CreatedAt)
	if isUniqueViolation(err, "reviews_trip_key") {
		return review.ErrDuplicateReview
	}
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetByTrip retrieves the review for a trip
func (r *ReviewRepo) GetByTrip(ctx context.Context, tripID uuid.UUID) (*review.Review, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE trip_id = $1
	`, tripID)
	rv, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, review.ErrReviewNotFound
	}
	return rv, err
}

// ListByDriver retrieves reviews of a driver, newest first
func (r *ReviewRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*review.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, driverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*review.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

// AggregateByDriver computes the unweighted mean rating and count
func (r *ReviewRepo) AggregateByDriver(ctx context.Context, driverID uuid.UUID) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(rating), COUNT(*)
		FROM reviews
		WHERE driver_id = $1
	`, driverID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	return avg.Float64, count, nil
}

func scanReview(s scanner) (*review.Review, error) {
	var (
		rv   review.Review
		tags pq.StringArray
	)
	err := s.Scan(&rv.ID, &rv.TripID, &rv.RiderID, &rv.DriverID, &rv.Rating, &tags, &rv.Comment, &rv.Favorite, &rv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	rv.Tags = tags
	return &rv, nil
}
