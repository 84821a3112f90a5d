package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents what a user account is allowed to do
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// AccountStatus represents the moderation state of an account
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// DriverStatus represents the driver approval state
type DriverStatus string

const (
	DriverNone     DriverStatus = "none"
	DriverPending  DriverStatus = "pending"
	DriverApproved DriverStatus = "approved"
	DriverRejected DriverStatus = "rejected"
)

// User represents a rider, driver or admin account. Driver state is
// split across three fields: DriverProfileExists flips when the
// vehicle profile is filed, DriverVerified when an admin has checked
// the documents, and DriverStatus carries the approval decision.
type User struct {
	ID                  uuid.UUID     `json:"id"`
	Name                string        `json:"name"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	PasswordHash        string        `json:"-"`
	Role                Role          `json:"role"`
	AccountStatus       AccountStatus `json:"account_status"`
	DriverProfileExists bool          `json:"driver_profile_exists"`
	DriverVerified      bool          `json:"driver_verified"`
	DriverStatus        DriverStatus  `json:"driver_status,omitempty"`
	VehicleCategory     string        `json:"vehicle_category,omitempty"`
	VehicleReg          string        `json:"vehicle_reg,omitempty"`
	City                string        `json:"city"`
	Online              bool          `json:"online"`
	Rating              float64       `json:"rating"`
	TripCount           int           `json:"trip_count"`
	ForceRiderMode      bool          `json:"force_rider_mode"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// IsValid validates the user entity
func (u *User) IsValid() error {
	if u.Name == "" {
		return ErrInvalidName
	}
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if u.Phone == "" {
		return ErrInvalidPhone
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	if !u.AccountStatus.IsValid() {
		return ErrInvalidAccountStatus
	}
	return nil
}

// IsValid validates the role
func (r Role) IsValid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// IsValid validates the account status
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountActive, AccountSuspended, AccountBanned:
		return true
	}
	return false
}

// IsValid validates the driver approval state
func (s DriverStatus) IsValid() bool {
	switch s {
	case DriverNone, DriverPending, DriverApproved, DriverRejected:
		return true
	}
	return false
}

// CanDrive returns true if the account may act as a driver right now.
// Forced rider mode parks a driver without touching their approval.
func (u *User) CanDrive() bool {
	return u.Role == RoleDriver &&
		u.DriverStatus == DriverApproved &&
		!u.ForceRiderMode
}

// IsActive returns true if the account is not suspended or banned
func (u *User) IsActive() bool {
	return u.AccountStatus == AccountActive
}
