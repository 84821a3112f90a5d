package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the machine-readable error class sent on the wire
type ErrorType string

const (
	TypeInputError   ErrorType = "inputerror"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeAccessDenied ErrorType = "accessdenied"
	TypeNotFound     ErrorType = "notfound"
	TypeConflict     ErrorType = "conflict"
	TypeRateLimited  ErrorType = "ratelimited"
	TypeInternal     ErrorType = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Type    ErrorType `json:"error_type"`
	Message string    `json:"error"`
	Status  int       `json:"-"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Envelope is the JSON body written for every failed request
type Envelope struct {
	Type    ErrorType `json:"error_type"`
	Message string    `json:"error"`
}

// Envelope returns the wire representation of the error
func (e *AppError) Envelope() Envelope {
	return Envelope{Type: e.Type, Message: e.Message}
}

// NewAppError creates a new AppError
func NewAppError(errType ErrorType, message string, status int, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// InputError creates a 400 error for malformed or invalid input
func InputError(message string, err error) *AppError {
	return &AppError{
		Type:    TypeInputError,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// Unauthorized creates a 401 error
func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Type:    TypeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

// AccessDenied creates a 403 error
func AccessDenied(message string, err error) *AppError {
	return &AppError{
		Type:    TypeAccessDenied,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return &AppError{
		Type:    TypeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return &AppError{
		Type:    TypeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return &AppError{
		Type:    TypeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// InvalidTransition creates a 400 error naming both trip states
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Type:    TypeInputError,
		Message: fmt.Sprintf("cannot transition trip from %s to %s", from, to),
		Status:  http.StatusBadRequest,
	}
}

// Domain-specific errors

var (
	ErrUserNotFound   = NotFound("User not found", nil)
	ErrTripNotFound   = NotFound("Trip not found", nil)
	ErrBidNotFound    = NotFound("Bid not found", nil)
	ErrReviewNotFound = NotFound("Review not found", nil)
	ErrDriverNotFound = NotFound("Driver not found", nil)

	ErrNotTripRider       = AccessDenied("Only the trip rider may perform this action", nil)
	ErrNotTripDriver      = AccessDenied("Only the assigned driver may perform this action", nil)
	ErrNotTripParticipant = AccessDenied("Only trip participants may perform this action", nil)
	ErrDriverNotApproved  = AccessDenied("Driver account is not approved", nil)
	ErrAccountSuspended   = AccessDenied("Account is suspended", nil)
	ErrAccountBanned      = AccessDenied("Account is banned", nil)

	ErrTripNotOpen        = Conflict("Trip is no longer open for bidding", nil)
	ErrTripNotCancellable = Conflict("Trip can no longer be cancelled", nil)
	ErrDuplicateBid       = Conflict("Driver has already bid on this trip", nil)
	ErrDuplicateReview    = Conflict("Trip has already been reviewed", nil)
	ErrActiveTripExists   = Conflict("An active trip already exists", nil)

	ErrInvalidCoordinates = InputError("Invalid coordinates", nil)
	ErrInvalidCategory    = InputError("Invalid trip category", nil)
	ErrInvalidRating      = InputError("Rating must be between 1 and 5", nil)

	ErrInvalidToken = Unauthorized("Invalid or expired token", nil)
	ErrTokenRevoked = Unauthorized("Token has been revoked", nil)

	ErrRateLimitExceeded = &AppError{
		Type:    TypeRateLimited,
		Message: "Rate limit exceeded. Please try again later",
		Status:  http.StatusTooManyRequests,
	}
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	// Return generic internal error if not an AppError
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
