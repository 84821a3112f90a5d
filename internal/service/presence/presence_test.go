package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinzw/dispatch/internal/domain/location"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	apperrors "github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

type recordLocations struct {
	location.Repository
	upserted []*location.DriverLocation
	online   map[uuid.UUID]bool
}

func (r *recordLocations) Upsert(ctx context.Context, loc *location.DriverLocation) error {
	r.upserted = append(r.upserted, loc)
	return nil
}

func (r *recordLocations) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error {
	if r.online == nil {
		r.online = map[uuid.UUID]bool{}
	}
	r.online[driverID] = online
	return nil
}

type stubUsers struct {
	user.Repository
	users  map[uuid.UUID]*user.User
	online map[uuid.UUID]bool
}

func (s *stubUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	if s.online == nil {
		s.online = map[uuid.UUID]bool{}
	}
	s.online[id] = online
	return nil
}

type stubTrips struct {
	trip.Repository
	active *trip.Trip
}

func (s *stubTrips) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*trip.Trip, error) {
	return s.active, nil
}

type capturedEvent struct {
	topic string
	typ   events.Type
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, eventType events.Type, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{topic: topic, typ: eventType})
}

func (p *capturePublisher) has(topic string, typ events.Type) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.topic == topic && e.typ == typ {
			return true
		}
	}
	return false
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	require.NoError(t, err)
	return log
}

func disabledMonitor(t *testing.T) *monitoring.NewRelicApp {
	nr, err := monitoring.New(monitoring.Config{Enabled: false})
	require.NoError(t, err)
	return nr
}

func approvedDriver(city string) *user.User {
	return &user.User{
		ID:              uuid.New(),
		Role:            user.RoleDriver,
		AccountStatus:   user.AccountActive,
		DriverStatus:    user.DriverApproved,
		VehicleCategory: string(trip.CategoryStandard),
		City:            city,
		Online:          true,
	}
}

func newTestService(t *testing.T, locations *recordLocations, users *stubUsers, trips *stubTrips, pub events.Publisher) *Service {
	if trips == nil {
		trips = &stubTrips{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return NewService(locations, users, trips, nil, pub, disabledMonitor(t), testLogger(t),
		Config{LocationTTL: 90 * time.Second})
}

// TestUpdateLocation_StoresMirrorAndPublishes tests the ping path
func TestUpdateLocation_StoresMirrorAndPublishes(t *testing.T) {
	driver := approvedDriver("harare")
	locations := &recordLocations{}
	pub := &capturePublisher{}
	service := newTestService(t, locations, &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}}, nil, pub)

	loc, err := service.UpdateLocation(context.Background(), driver.ID, -17.8292, 31.0522)
	require.NoError(t, err)

	assert.Equal(t, "harare", loc.City)
	assert.True(t, loc.Online)
	require.Len(t, locations.upserted, 1)
	assert.Equal(t, driver.ID, locations.upserted[0].DriverID)
	assert.True(t, pub.has(events.TopicCityDrivers("harare"), events.TypeDriverLocation))
}

// TestUpdateLocation_StreamsToActiveTrip tests riders can watch the car
func TestUpdateLocation_StreamsToActiveTrip(t *testing.T) {
	driver := approvedDriver("harare")
	active := &trip.Trip{ID: uuid.New(), RiderID: uuid.New(), DriverID: &driver.ID, Status: trip.StatusStarted}
	pub := &capturePublisher{}
	service := newTestService(t, &recordLocations{}, &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}},
		&stubTrips{active: active}, pub)

	_, err := service.UpdateLocation(context.Background(), driver.ID, -17.83, 31.05)
	require.NoError(t, err)

	assert.True(t, pub.has(events.TopicTrip(active.ID), events.TypeDriverLocation))
}

// TestUpdateLocation_NoTripTopicWhileOpen tests positions stay off the
// trip topic before a driver is assigned
func TestUpdateLocation_NoTripTopicWhileOpen(t *testing.T) {
	driver := approvedDriver("harare")
	pending := &trip.Trip{ID: uuid.New(), RiderID: uuid.New(), Status: trip.StatusPending}
	pub := &capturePublisher{}
	service := newTestService(t, &recordLocations{}, &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}},
		&stubTrips{active: pending}, pub)

	_, err := service.UpdateLocation(context.Background(), driver.ID, -17.83, 31.05)
	require.NoError(t, err)

	assert.False(t, pub.has(events.TopicTrip(pending.ID), events.TypeDriverLocation))
}

// TestUpdateLocation_RejectsBadCoordinates tests input validation
func TestUpdateLocation_RejectsBadCoordinates(t *testing.T) {
	driver := approvedDriver("harare")
	service := newTestService(t, &recordLocations{}, &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}}, nil, nil)

	_, err := service.UpdateLocation(context.Background(), driver.ID, -91, 31.05)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)

	_, err = service.UpdateLocation(context.Background(), driver.ID, -17.83, 181)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
}

// TestUpdateLocation_RequiresApprovedDriver tests the approval gate
func TestUpdateLocation_RequiresApprovedDriver(t *testing.T) {
	driver := approvedDriver("harare")
	driver.DriverStatus = user.DriverPending
	service := newTestService(t, &recordLocations{}, &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}}, nil, nil)

	_, err := service.UpdateLocation(context.Background(), driver.ID, -17.83, 31.05)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotApproved)
}

// TestSetOnline_TogglesAndPublishes tests the presence toggle
func TestSetOnline_TogglesAndPublishes(t *testing.T) {
	driver := approvedDriver("harare")
	driver.Online = false
	users := &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	locations := &recordLocations{}
	pub := &capturePublisher{}
	service := newTestService(t, locations, users, nil, pub)

	updated, err := service.SetOnline(context.Background(), driver.ID, true)
	require.NoError(t, err)

	assert.True(t, updated.Online)
	assert.True(t, users.online[driver.ID])
	assert.True(t, locations.online[driver.ID])
	assert.True(t, pub.has(events.TopicCityDrivers("harare"), events.TypeDriverStatus))
}

// TestSetOnline_ParkedDriverCannotGoOnline tests forced rider mode
func TestSetOnline_ParkedDriverCannotGoOnline(t *testing.T) {
	driver := approvedDriver("harare")
	driver.ForceRiderMode = true
	users := &stubUsers{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := newTestService(t, &recordLocations{}, users, nil, nil)

	_, err := service.SetOnline(context.Background(), driver.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotApproved)

	// Going offline stays allowed for a parked driver
	updated, err := service.SetOnline(context.Background(), driver.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Online)
}
