package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rideinzw/dispatch/internal/domain/location"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/pkg/cache"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

// Service tracks where drivers are and whether they are taking work.
// The Redis geo index is the hot copy position reads come from; the
// SQL row is the durable mirror and may lag a ping without harm.
type Service struct {
	locations location.Repository
	users     user.Repository
	trips     trip.Repository
	redis     *redis.Client
	events    events.Publisher
	monitor   *monitoring.NewRelicApp
	logger    *logger.Logger
	config    Config
}

// Config holds presence configuration
type Config struct {
	// LocationTTL bounds how long a driver counts as present without a
	// fresh ping
	LocationTTL time.Duration
}

// NewService creates a presence service. The Redis client may be nil,
// in which case only the durable mirror is kept.
func NewService(
	locations location.Repository,
	users user.Repository,
	trips trip.Repository,
	redisClient *redis.Client,
	publisher events.Publisher,
	monitor *monitoring.NewRelicApp,
	log *logger.Logger,
	config Config,
) *Service {
	return &Service{
		locations: locations,
		users:     users,
		trips:     trips,
		redis:     redisClient,
		events:    publisher,
		monitor:   monitor,
		logger:    log,
		config:    config,
	}
}

func geoKey(city string) string {
	return fmt.Sprintf("drivers:geo:%s", city)
}

func presenceSetKey(city string) string {
	return fmt.Sprintf("presence:drivers:%s", city)
}

func presenceMarkerKey(driverID uuid.UUID) string {
	return fmt.Sprintf("presence:driver:%s", driverID)
}

// UpdateLocation records a position ping. The geo index is updated
// first; the durable row follows and its failure only costs the
// mirror, not the ping.
func (s *Service) UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) (*location.DriverLocation, error) {
	if !location.ValidCoordinates(lat, lng) {
		return nil, errors.ErrInvalidCoordinates
	}

	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}
	if !driver.CanDrive() {
		return nil, errors.ErrDriverNotApproved
	}

	city := driver.City
	if s.redis != nil {
		_, err = s.redis.GeoAdd(ctx, geoKey(city), &redis.GeoLocation{
			Name:      driverID.String(),
			Longitude: lng,
			Latitude:  lat,
		}).Result()
		if err != nil {
			return nil, errors.Internal("Failed to update location index", err)
		}
		if err := cache.SetWithExpiry(ctx, s.redis, presenceMarkerKey(driverID), city, s.config.LocationTTL); err != nil {
			s.logger.Warn("Failed to refresh presence marker",
				logger.String("driver_id", driverID.String()),
				logger.Err(err),
			)
		}
	}

	loc := &location.DriverLocation{
		DriverID:  driverID,
		Latitude:  lat,
		Longitude: lng,
		City:      city,
		Online:    driver.Online,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.locations.Upsert(ctx, loc); err != nil {
		s.logger.Warn("Failed to store durable location",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
	}

	s.events.Publish(ctx, events.TopicCityDrivers(city), events.TypeDriverLocation, loc)
	s.publishToActiveTrip(ctx, driverID, loc)
	s.monitor.RecordLocationUpdate()

	return loc, nil
}

// SetOnline toggles whether the driver is taking work. Going online
// requires an approved, unparked driver account; going offline is
// always allowed.
func (s *Service) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) (*user.User, error) {
	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}
	if online && !driver.CanDrive() {
		return nil, errors.ErrDriverNotApproved
	}

	if err := s.users.SetOnline(ctx, driverID, online); err != nil {
		return nil, errors.Internal("Failed to update online flag", err)
	}
	if err := s.locations.SetOnline(ctx, driverID, online); err != nil {
		s.logger.Warn("Failed to mirror online flag",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
	}

	city := driver.City
	if s.redis != nil {
		if online {
			if err := cache.SAdd(ctx, s.redis, presenceSetKey(city), driverID.String()); err != nil {
				s.logger.Warn("Failed to join presence set",
					logger.String("driver_id", driverID.String()),
					logger.Err(err),
				)
			}
			if err := cache.SetWithExpiry(ctx, s.redis, presenceMarkerKey(driverID), city, s.config.LocationTTL); err != nil {
				s.logger.Warn("Failed to set presence marker",
					logger.String("driver_id", driverID.String()),
					logger.Err(err),
				)
			}
		} else {
			if err := cache.SRem(ctx, s.redis, presenceSetKey(city), driverID.String()); err != nil {
				s.logger.Warn("Failed to leave presence set",
					logger.String("driver_id", driverID.String()),
					logger.Err(err),
				)
			}
			if err := cache.Delete(ctx, s.redis, presenceMarkerKey(driverID)); err != nil {
				s.logger.Warn("Failed to clear presence marker",
					logger.String("driver_id", driverID.String()),
					logger.Err(err),
				)
			}
			// The geo index is a zset underneath; drop the member so
			// offline drivers stop matching.
			if err := s.redis.ZRem(ctx, geoKey(city), driverID.String()).Err(); err != nil {
				s.logger.Warn("Failed to drop driver from geo index",
					logger.String("driver_id", driverID.String()),
					logger.Err(err),
				)
			}
		}
	}

	updated := *driver
	updated.Online = online

	s.logger.Info("Driver presence changed",
		logger.String("driver_id", driverID.String()),
		logger.String("city", city),
		logger.Bool("online", online),
	)
	s.events.Publish(ctx, events.TopicCityDrivers(city), events.TypeDriverStatus, map[string]interface{}{
		"driver_id": driverID,
		"online":    online,
	})

	return &updated, nil
}

// publishToActiveTrip streams the driver's position onto the trip
// topic once a trip is underway, so the rider can watch the vehicle
func (s *Service) publishToActiveTrip(ctx context.Context, driverID uuid.UUID, loc *location.DriverLocation) {
	active, err := s.trips.ActiveByDriver(ctx, driverID)
	if err != nil || active == nil {
		return
	}
	switch active.Status {
	case trip.StatusAccepted, trip.StatusArrived, trip.StatusStarted:
		s.events.Publish(ctx, events.TopicTrip(active.ID), events.TypeDriverLocation, loc)
	}
}
