package lifecycle

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinzw/dispatch/internal/domain/bid"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/internal/service/pricing"
	apperrors "github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

// memTrips is an in-memory trip store that keeps the conditional
// update semantics of the SQL implementation, so guard behavior is
// exercised for real.
type memTrips struct {
	trip.Repository
	mu    sync.Mutex
	trips map[uuid.UUID]*trip.Trip
}

func newMemTrips() *memTrips {
	return &memTrips{trips: map[uuid.UUID]*trip.Trip{}}
}

func (m *memTrips) Create(ctx context.Context, t *trip.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trips[t.ID] = &cp
	return nil
}

func (m *memTrips) GetByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTrips) ActiveByRider(ctx context.Context, riderID uuid.UUID) (*trip.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.RiderID == riderID && !t.Status.IsTerminal() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTrips) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*trip.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.DriverID != nil && *t.DriverID == driverID && !t.Status.IsTerminal() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTrips) UpdateStatusGuard(ctx context.Context, id uuid.UUID, to trip.Status, allowedFrom []trip.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return trip.ErrStatusConflict
	}
	allowed := false
	for _, s := range allowedFrom {
		if t.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return trip.ErrStatusConflict
	}
	t.Status = to
	t.UpdatedAt = at
	switch to {
	case trip.StatusArrived:
		t.ArrivedAt = &at
	case trip.StatusStarted:
		t.StartedAt = &at
	case trip.StatusCompleted:
		t.CompletedAt = &at
	}
	return nil
}

func (m *memTrips) Cancel(ctx context.Context, id uuid.UUID, reason, cancelledBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok || !t.Status.IsCancellable() {
		return trip.ErrStatusConflict
	}
	t.Status = trip.StatusCancelled
	t.CancellationReason = reason
	t.CancelledBy = cancelledBy
	t.CancelledAt = &at
	t.UpdatedAt = at
	return nil
}

type stubBids struct {
	bid.Repository
	byTrip map[uuid.UUID][]*bid.Bid
}

func (s *stubBids) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]*bid.Bid, error) {
	return s.byTrip[tripID], nil
}

type memUsers struct {
	user.Repository
	mu         sync.Mutex
	users      map[uuid.UUID]*user.User
	tripCounts map[uuid.UUID]int
}

func newMemUsers(users ...*user.User) *memUsers {
	m := &memUsers{users: map[uuid.UUID]*user.User{}, tripCounts: map[uuid.UUID]int{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) IncrementTripCount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tripCounts[id]++
	return nil
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

func testPricing() *pricing.Service {
	return pricing.NewService(pricing.Config{
		Currency: "USD",
		Rates: map[trip.Category]pricing.Rate{
			trip.CategoryStandard: {BaseFare: 1.5, PerKM: 0.5, PerMinute: 0.05},
			trip.CategoryTruck:    {BaseFare: 10, PerKM: 1.5, PerMinute: 0.15},
		},
	})
}

func disabledMonitor(t *testing.T) *monitoring.NewRelicApp {
	nr, err := monitoring.New(monitoring.Config{Enabled: false})
	require.NoError(t, err)
	return nr
}

func activeRider(city string) *user.User {
	return &user.User{
		ID:            uuid.New(),
		Name:          "Tariro",
		Role:          user.RoleRider,
		AccountStatus: user.AccountActive,
		City:          city,
	}
}

func validInput() CreateInput {
	return CreateInput{
		Category:         trip.CategoryStandard,
		PickupLatitude:   -17.8292,
		PickupLongitude:  31.0522,
		DropoffLatitude:  -17.8640,
		DropoffLongitude: 31.0297,
		PickupAddress:    "Samora Machel Ave",
		DropoffAddress:   "Mbare Musika",
		ProposedPrice:    5.0,
		DistanceKM:       6.2,
		DurationMinutes:  18,
	}
}

func newTestService(t *testing.T, trips *memTrips, bids *stubBids, users *memUsers, pub events.Publisher) *Service {
	if bids == nil {
		bids = &stubBids{byTrip: map[uuid.UUID][]*bid.Bid{}}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return NewService(trips, bids, users, testPricing(), pub, disabledMonitor(t), testLogger(t))
}

// TestCreate_OpensPendingTrip tests the happy path of trip creation
func TestCreate_OpensPendingTrip(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	pub := &capturePublisher{}
	service := newTestService(t, trips, nil, newMemUsers(rider), pub)

	created, err := service.Create(context.Background(), rider.ID, validInput())
	require.NoError(t, err)

	assert.Equal(t, trip.StatusPending, created.Status)
	assert.Equal(t, trip.VehiclePassenger, created.VehicleType)
	assert.Equal(t, "harare", created.City, "city should come from the rider profile")
	assert.Nil(t, created.DriverID)
	assert.Nil(t, created.FinalPrice)

	stored, err := trips.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusPending, stored.Status)

	assert.True(t, pub.has(events.TopicCityTrips("harare"), events.TypeTripRequested))
}

// TestCreate_FreightCategoryDerivesVehicleType tests truck trips are freight
func TestCreate_FreightCategoryDerivesVehicleType(t *testing.T) {
	rider := activeRider("bulawayo")
	service := newTestService(t, newMemTrips(), nil, newMemUsers(rider), nil)

	in := validInput()
	in.Category = trip.CategoryTruck
	in.ItemDescription = "roof sheets"
	in.NeedsAssistance = true

	created, err := service.Create(context.Background(), rider.ID, in)
	require.NoError(t, err)
	assert.Equal(t, trip.VehicleFreight, created.VehicleType)
	assert.Equal(t, "roof sheets", created.ItemDescription)
	assert.True(t, created.NeedsAssistance)
}

// TestCreate_RejectsUnknownCategory tests categories outside the fare table
func TestCreate_RejectsUnknownCategory(t *testing.T) {
	rider := activeRider("harare")
	service := newTestService(t, newMemTrips(), nil, newMemUsers(rider), nil)

	in := validInput()
	in.Category = trip.CategoryLuxury // not in the test fare table

	_, err := service.Create(context.Background(), rider.ID, in)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)

	in.Category = trip.Category("rickshaw")
	_, err = service.Create(context.Background(), rider.ID, in)
	require.Error(t, err)
}

// TestCreate_RejectsInvalidCoordinates tests out-of-range positions
func TestCreate_RejectsInvalidCoordinates(t *testing.T) {
	rider := activeRider("harare")
	service := newTestService(t, newMemTrips(), nil, newMemUsers(rider), nil)

	in := validInput()
	in.PickupLatitude = 91

	_, err := service.Create(context.Background(), rider.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
}

// TestCreate_RejectsSecondActiveTrip tests one non-terminal trip per rider
func TestCreate_RejectsSecondActiveTrip(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	_, err := service.Create(context.Background(), rider.ID, validInput())
	require.NoError(t, err)

	_, err = service.Create(context.Background(), rider.ID, validInput())
	assert.ErrorIs(t, err, apperrors.ErrActiveTripExists)
}

// TestCreate_RejectsSuspendedAccount tests moderation gating
func TestCreate_RejectsSuspendedAccount(t *testing.T) {
	rider := activeRider("harare")
	rider.AccountStatus = user.AccountSuspended
	service := newTestService(t, newMemTrips(), nil, newMemUsers(rider), nil)

	_, err := service.Create(context.Background(), rider.ID, validInput())
	assert.ErrorIs(t, err, apperrors.ErrAccountSuspended)
}

// seedAccepted stores an ACCEPTED trip with the given driver assigned
func seedAccepted(trips *memTrips, rider *user.User, driverID uuid.UUID) *trip.Trip {
	now := time.Now().UTC()
	accepted := now.Add(-time.Minute)
	price := 6.5
	t := &trip.Trip{
		ID:            uuid.New(),
		RiderID:       rider.ID,
		DriverID:      &driverID,
		Status:        trip.StatusAccepted,
		VehicleType:   trip.VehiclePassenger,
		Category:      trip.CategoryStandard,
		City:          "harare",
		ProposedPrice: 5,
		FinalPrice:    &price,
		AcceptedAt:    &accepted,
		CreatedAt:     now.Add(-2 * time.Minute),
		UpdatedAt:     accepted,
	}
	trips.trips[t.ID] = t
	return t
}

// TestUpdateStatus_DriverProgression walks ACCEPTED through COMPLETED
func TestUpdateStatus_DriverProgression(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	users := newMemUsers(rider)
	seeded := seedAccepted(trips, rider, driverID)
	pub := &capturePublisher{}
	service := newTestService(t, trips, nil, users, pub)

	ctx := context.Background()

	updated, err := service.UpdateStatus(ctx, seeded.ID, driverID, user.RoleDriver, trip.StatusArrived)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusArrived, updated.Status)
	assert.NotNil(t, updated.ArrivedAt)

	updated, err = service.UpdateStatus(ctx, seeded.ID, driverID, user.RoleDriver, trip.StatusStarted)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusStarted, updated.Status)
	assert.NotNil(t, updated.StartedAt)

	updated, err = service.UpdateStatus(ctx, seeded.ID, driverID, user.RoleDriver, trip.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	assert.Equal(t, 1, users.tripCounts[rider.ID], "rider trip count should be bumped on completion")
	assert.Equal(t, 1, users.tripCounts[driverID], "driver trip count should be bumped on completion")
	assert.True(t, pub.has(events.TopicUser(rider.ID), events.TypeTripUpdated))
}

// TestUpdateStatus_InvalidTransitionNamesBothStates tests the error payload
func TestUpdateStatus_InvalidTransitionNamesBothStates(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, driverID)
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	_, err := service.UpdateStatus(context.Background(), seeded.ID, driverID, user.RoleDriver, trip.StatusCompleted)
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, string(trip.StatusAccepted))
	assert.Contains(t, appErr.Message, string(trip.StatusCompleted))
}

// TestUpdateStatus_TerminalTripIsImmutable tests COMPLETED stays final
func TestUpdateStatus_TerminalTripIsImmutable(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, driverID)
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	ctx := context.Background()
	for _, next := range []trip.Status{trip.StatusStarted, trip.StatusCompleted} {
		_, err := service.UpdateStatus(ctx, seeded.ID, driverID, user.RoleDriver, next)
		require.NoError(t, err)
	}

	_, err := service.UpdateStatus(ctx, seeded.ID, driverID, user.RoleDriver, trip.StatusStarted)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)

	_, err = service.Cancel(ctx, seeded.ID, rider.ID, user.RoleRider, "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrTripNotCancellable)
}

// TestUpdateStatus_OnlyAssignedDriver tests strangers cannot move a trip
func TestUpdateStatus_OnlyAssignedDriver(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, uuid.New())
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	_, err := service.UpdateStatus(context.Background(), seeded.ID, uuid.New(), user.RoleDriver, trip.StatusArrived)
	assert.ErrorIs(t, err, apperrors.ErrNotTripDriver)
}

// TestUpdateStatus_AcceptedOnlyThroughBidding tests ACCEPTED is not settable
func TestUpdateStatus_AcceptedOnlyThroughBidding(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	users := newMemUsers(rider)
	service := newTestService(t, trips, nil, users, nil)

	created, err := service.Create(context.Background(), rider.ID, validInput())
	require.NoError(t, err)

	_, err = service.UpdateStatus(context.Background(), created.ID, rider.ID, user.RoleRider, trip.StatusAccepted)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)
}

// TestUpdateStatus_ConcurrentWriterLoses tests the guard conflict mapping
func TestUpdateStatus_ConcurrentWriterLoses(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, driverID)
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	// Another writer moves the trip between the read and the guarded
	// update.
	racing := &racingTrips{memTrips: trips, winner: func() {
		trips.mu.Lock()
		trips.trips[seeded.ID].Status = trip.StatusStarted
		trips.mu.Unlock()
	}}
	service.trips = racing

	_, err := service.UpdateStatus(context.Background(), seeded.ID, driverID, user.RoleDriver, trip.StatusArrived)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.GetAppError(err).Status)
}

// racingTrips lets another writer slip in after the service reads the
// trip but before the guarded update runs
type racingTrips struct {
	*memTrips
	winner func()
	once   sync.Once
}

func (r *racingTrips) UpdateStatusGuard(ctx context.Context, id uuid.UUID, to trip.Status, allowedFrom []trip.Status, at time.Time) error {
	r.once.Do(r.winner)
	return r.memTrips.UpdateStatusGuard(ctx, id, to, allowedFrom, at)
}

// TestCancel_RiderBeforeAssignment tests cancelling an open trip
func TestCancel_RiderBeforeAssignment(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	pub := &capturePublisher{}
	service := newTestService(t, trips, nil, newMemUsers(rider), pub)

	created, err := service.Create(context.Background(), rider.ID, validInput())
	require.NoError(t, err)

	cancelled, err := service.Cancel(context.Background(), created.ID, rider.ID, user.RoleRider, "found a lift")
	require.NoError(t, err)

	assert.Equal(t, trip.StatusCancelled, cancelled.Status)
	assert.Equal(t, "found a lift", cancelled.CancellationReason)
	assert.Equal(t, "rider", cancelled.CancelledBy)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.True(t, pub.has(events.TopicCityTrips("harare"), events.TypeTripCancelled))
}

// TestCancel_DriverAfterAccept tests the assigned driver may cancel
func TestCancel_DriverAfterAccept(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, driverID)
	pub := &capturePublisher{}
	service := newTestService(t, trips, nil, newMemUsers(rider), pub)

	cancelled, err := service.Cancel(context.Background(), seeded.ID, driverID, user.RoleDriver, "breakdown")
	require.NoError(t, err)

	assert.Equal(t, "driver", cancelled.CancelledBy)
	assert.True(t, pub.has(events.TopicUser(rider.ID), events.TypeTripCancelled),
		"the rider should be told their driver bailed")
}

// TestCancel_StrangerDenied tests only participants may cancel
func TestCancel_StrangerDenied(t *testing.T) {
	rider := activeRider("harare")
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, uuid.New())
	service := newTestService(t, trips, nil, newMemUsers(rider), nil)

	_, err := service.Cancel(context.Background(), seeded.ID, uuid.New(), user.RoleRider, "")
	assert.ErrorIs(t, err, apperrors.ErrNotTripParticipant)
}

// TestActive_FallsBackToDriverSide tests lookup for assigned drivers
func TestActive_FallsBackToDriverSide(t *testing.T) {
	rider := activeRider("harare")
	driverID := uuid.New()
	trips := newMemTrips()
	seeded := seedAccepted(trips, rider, driverID)
	offer := &bid.Bid{ID: uuid.New(), TripID: seeded.ID, DriverID: driverID, Amount: 6.5, Status: bid.StatusAccepted}
	bids := &stubBids{byTrip: map[uuid.UUID][]*bid.Bid{seeded.ID: {offer}}}
	service := newTestService(t, trips, bids, newMemUsers(rider), nil)

	active, err := service.Active(context.Background(), driverID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, active.Trip.ID)
	require.Len(t, active.Bids, 1)
	assert.Equal(t, offer.ID, active.Bids[0].ID)
}

// TestActive_NoneFound tests the empty case maps to not found
func TestActive_NoneFound(t *testing.T) {
	service := newTestService(t, newMemTrips(), nil, newMemUsers(), nil)

	_, err := service.Active(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTripNotFound)
}
