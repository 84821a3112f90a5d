package location

import "errors"

var (
	ErrLocationNotFound   = errors.New("driver location not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
