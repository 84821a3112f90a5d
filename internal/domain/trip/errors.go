package trip

import "errors"

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrTripNotOpen     = errors.New("trip is not open for bidding")
	ErrStatusConflict  = errors.New("trip status changed concurrently")
	ErrInvalidStatus   = errors.New("invalid trip status")
	ErrInvalidCategory = errors.New("invalid trip category")
)
