package location

import (
	"time"

	"github.com/google/uuid"
)

// DriverLocation is the durable last-known position of a driver. The
// hot copy used for matching lives in the Redis geo index.
type DriverLocation struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	City      string    `json:"city"`
	Online    bool      `json:"online"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidCoordinates reports whether the pair is a real WGS84 position
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
