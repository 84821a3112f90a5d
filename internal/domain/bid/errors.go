package bid

import "errors"

var (
	ErrBidNotFound   = errors.New("bid not found")
	ErrDuplicateBid  = errors.New("driver already bid on this trip")
	ErrInvalidAmount = errors.New("bid amount must be positive")
	ErrInvalidStatus = errors.New("invalid bid status")
)
