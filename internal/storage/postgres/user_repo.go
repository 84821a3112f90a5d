package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/user"
)

const userColumns = `id, name, email, phone, password_hash, role, account_status,
	driver_profile_exists, driver_verified, driver_status, vehicle_category, vehicle_reg,
	city, online, rating, trip_count, force_rider_mode, created_at, updated_at`

// UserRepo is the PostgreSQL implementation of user.Repository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a user repository backed by the given pool
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new account. Email uniqueness is enforced by the
// store, case-insensitively.
func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, email, phone, password_hash, role, account_status,
			driver_profile_exists, driver_verified, driver_status,
			vehicle_category, vehicle_reg, city, online, rating, trip_count,
			force_rider_mode, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.AccountStatus,
		u.DriverProfileExists, u.DriverVerified, u.DriverStatus,
		u.VehicleCategory, u.VehicleReg, u.City, u.Online, u.Rating, u.TripCount,
		u.ForceRiderMode, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err, "users_email_key") {
		return user.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanUser(row)
}

// Update persists the mutable profile fields
func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, phone = $3, city = $4, updated_at = NOW()
		WHERE id = $1
	`, u.ID, u.Name, u.Phone, u.City)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// UpdateAccountStatus updates the moderation state
func (r *UserRepo) UpdateAccountStatus(ctx context.Context, id uuid.UUID, status user.AccountStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET account_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// SaveDriverProfile files the vehicle profile, switches the account to
// the driver role and resets the approval state to pending
func (r *UserRepo) SaveDriverProfile(ctx context.Context, id uuid.UUID, category, reg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET role = $2, driver_profile_exists = TRUE, driver_verified = FALSE,
			driver_status = $3, vehicle_category = $4, vehicle_reg = $5, updated_at = NOW()
		WHERE id = $1
	`, id, user.RoleDriver, user.DriverPending, category, reg)
	if err != nil {
		return fmt.Errorf("failed to save driver profile: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// UpdateDriverStatus records the approval decision. Approval also
// marks the documents verified.
func (r *UserRepo) UpdateDriverStatus(ctx context.Context, id uuid.UUID, status user.DriverStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET driver_status = $2, driver_verified = ($2 = $3), updated_at = NOW()
		WHERE id = $1
	`, id, status, user.DriverApproved)
	if err != nil {
		return fmt.Errorf("failed to update driver status: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// SetOnline toggles driver presence
func (r *UserRepo) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET online = $2, updated_at = NOW()
		WHERE id = $1
	`, id, online)
	if err != nil {
		return fmt.Errorf("failed to set online flag: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// SetForceRiderMode toggles forced rider mode on a driver
func (r *UserRepo) SetForceRiderMode(ctx context.Context, id uuid.UUID, forced bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET force_rider_mode = $2, updated_at = NOW()
		WHERE id = $1
	`, id, forced)
	if err != nil {
		return fmt.Errorf("failed to set force rider mode: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// UpdateRating stores a recomputed rating aggregate
func (r *UserRepo) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET rating = $2, updated_at = NOW()
		WHERE id = $1
	`, id, rating)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

// IncrementTripCount bumps the completed trip counter
func (r *UserRepo) IncrementTripCount(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET trip_count = trip_count + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment trip count: %w", err)
	}
	return requireRow(res, user.ErrUserNotFound)
}

func scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.AccountStatus,
		&u.DriverProfileExists, &u.DriverVerified, &u.DriverStatus, &u.VehicleCategory, &u.VehicleReg,
		&u.City, &u.Online, &u.Rating, &u.TripCount, &u.ForceRiderMode, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// requireRow maps a zero-row update to the given not-found error
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
