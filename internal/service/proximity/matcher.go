package proximity

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// Service finds open trips for drivers to bid on
type Service struct {
	trips  trip.Repository
	users  user.Repository
	logger *logger.Logger
	config Config
}

// Config holds proximity search configuration
type Config struct {
	DefaultRadiusKM float64
	MaxRadiusKM     float64
	MaxResults      int
}

// NearbyTrip is an open trip with its distance from the driver
type NearbyTrip struct {
	*trip.Trip
	DistanceKM float64 `json:"distance_km"`
}

// NewService creates a new proximity service
func NewService(trips trip.Repository, users user.Repository, logger *logger.Logger, config Config) *Service {
	return &Service{
		trips:  trips,
		users:  users,
		logger: logger,
		config: config,
	}
}

// ListOpenNearby returns open trips in the driver's city whose pickup
// lies within the radius of the given position, oldest first. The
// boundary is inclusive: a pickup exactly at the radius is returned.
func (s *Service) ListOpenNearby(ctx context.Context, driverID uuid.UUID, lat, lng, radiusKM float64) ([]*NearbyTrip, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, errors.ErrInvalidCoordinates
	}

	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}
	if !driver.IsActive() {
		return nil, errors.AccessDenied("Account is not active", nil)
	}
	if !driver.CanDrive() {
		return nil, errors.ErrDriverNotApproved
	}

	if radiusKM <= 0 {
		radiusKM = s.config.DefaultRadiusKM
	}
	if radiusKM > s.config.MaxRadiusKM {
		radiusKM = s.config.MaxRadiusKM
	}

	categories := []trip.Category{trip.Category(driver.VehicleCategory)}

	startTime := time.Now()
	open, err := s.trips.ListOpenByCity(ctx, driver.City, categories)
	if err != nil {
		return nil, errors.Internal("Failed to load open trips", err)
	}

	nearby := make([]*NearbyTrip, 0, len(open))
	for _, t := range open {
		d := DistanceKM(lat, lng, t.PickupLatitude, t.PickupLongitude)
		if d <= radiusKM {
			nearby = append(nearby, &NearbyTrip{
				Trip:       t,
				DistanceKM: math.Round(d*100) / 100,
			})
		}
		if len(nearby) >= s.config.MaxResults {
			break
		}
	}

	s.logger.Debug("Proximity search completed",
		logger.String("driver_id", driverID.String()),
		logger.String("city", driver.City),
		logger.Float64("radius_km", radiusKM),
		logger.Int("candidates", len(open)),
		logger.Int("matches", len(nearby)),
		logger.Duration("elapsed", time.Since(startTime)),
	)

	return nearby, nil
}

// DistanceKM calculates haversine distance between two points
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // kilometers

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
