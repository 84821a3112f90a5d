package user

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidName          = errors.New("invalid user name")
	ErrInvalidEmail         = errors.New("invalid user email")
	ErrInvalidPhone         = errors.New("invalid user phone")
	ErrInvalidRole          = errors.New("invalid user role")
	ErrInvalidAccountStatus = errors.New("invalid account status")
	ErrInvalidDriverStatus  = errors.New("invalid driver status")
)
