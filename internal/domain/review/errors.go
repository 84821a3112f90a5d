package review

import "errors"

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("trip already reviewed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)
