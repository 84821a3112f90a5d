package review

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Review represents a rider's post-trip rating of the driver.
// One review per trip.
type Review struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	RiderID   uuid.UUID `json:"rider_id"`
	DriverID  uuid.UUID `json:"driver_id"`
	Rating    float64   `json:"rating"`
	Tags      []string  `json:"tags,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid validates the review entity
func (r *Review) IsValid() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// RoundRating renders a rating to one decimal place, the precision
// ratings are stored and aggregated at
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
