package proximity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	apperrors "github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

type fakeTripRepo struct {
	trip.Repository
	open          []*trip.Trip
	gotCity       string
	gotCategories []trip.Category
}

func (f *fakeTripRepo) ListOpenByCity(ctx context.Context, city string, categories []trip.Category) ([]*trip.Trip, error) {
	f.gotCity = city
	f.gotCategories = categories
	return f.open, nil
}

type fakeUserRepo struct {
	user.Repository
	users map[uuid.UUID]*user.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	require.NoError(t, err)
	return log
}

func approvedDriver(city string) *user.User {
	return &user.User{
		ID:              uuid.New(),
		Role:            user.RoleDriver,
		AccountStatus:   user.AccountActive,
		DriverStatus:    user.DriverApproved,
		VehicleCategory: string(trip.CategoryStandard),
		City:            city,
	}
}

func openTripAt(lat, lng float64, createdAt time.Time) *trip.Trip {
	return &trip.Trip{
		ID:              uuid.New(),
		RiderID:         uuid.New(),
		Status:          trip.StatusPending,
		Category:        trip.CategoryStandard,
		PickupLatitude:  lat,
		PickupLongitude: lng,
		City:            "harare",
		CreatedAt:       createdAt,
	}
}

func testConfig() Config {
	return Config{DefaultRadiusKM: 5.0, MaxRadiusKM: 50.0, MaxResults: 50}
}

// TestDistanceKM_KnownPoints tests the haversine against a known pair
func TestDistanceKM_KnownPoints(t *testing.T) {
	// One degree of longitude on the equator is about 111.19 km
	d := DistanceKM(0, 0, 0, 1)
	assert.InDelta(t, 111.19, d, 0.5)

	// Zero distance for identical points
	assert.Equal(t, 0.0, DistanceKM(-17.83, 31.05, -17.83, 31.05))
}

// TestListOpenNearby_FiltersByRadius tests trips beyond the radius are dropped
func TestListOpenNearby_FiltersByRadius(t *testing.T) {
	driver := approvedDriver("harare")
	near := openTripAt(0.01, 0, time.Now()) // ~1.1km from origin
	far := openTripAt(1.0, 0, time.Now())   // ~111km from origin

	trips := &fakeTripRepo{open: []*trip.Trip{near, far}}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	nearby, err := service.ListOpenNearby(context.Background(), driver.ID, 0, 0, 5.0)
	require.NoError(t, err)

	require.Len(t, nearby, 1)
	assert.Equal(t, near.ID, nearby[0].ID)
	assert.Greater(t, nearby[0].DistanceKM, 0.0)
}

// TestListOpenNearby_BoundaryInclusive tests a pickup exactly at the radius
func TestListOpenNearby_BoundaryInclusive(t *testing.T) {
	driver := approvedDriver("harare")
	boundary := openTripAt(0.05, 0, time.Now())
	exact := DistanceKM(0, 0, boundary.PickupLatitude, boundary.PickupLongitude)

	trips := &fakeTripRepo{open: []*trip.Trip{boundary}}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	nearby, err := service.ListOpenNearby(context.Background(), driver.ID, 0, 0, exact)
	require.NoError(t, err)

	assert.Len(t, nearby, 1, "pickup exactly at the radius should be included")
}

// TestListOpenNearby_PreservesCreationOrder tests oldest-first ordering
func TestListOpenNearby_PreservesCreationOrder(t *testing.T) {
	driver := approvedDriver("harare")
	older := openTripAt(0.01, 0, time.Now().Add(-time.Hour))
	newer := openTripAt(0.02, 0, time.Now())

	trips := &fakeTripRepo{open: []*trip.Trip{older, newer}}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	nearby, err := service.ListOpenNearby(context.Background(), driver.ID, 0, 0, 10.0)
	require.NoError(t, err)

	require.Len(t, nearby, 2)
	assert.Equal(t, older.ID, nearby[0].ID, "older trip should come first")
	assert.Equal(t, newer.ID, nearby[1].ID)
}

// TestListOpenNearby_QueriesDriverCityAndCategory tests the repo filter
func TestListOpenNearby_QueriesDriverCityAndCategory(t *testing.T) {
	driver := approvedDriver("bulawayo")
	driver.VehicleCategory = string(trip.CategoryTruck)

	trips := &fakeTripRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	_, err := service.ListOpenNearby(context.Background(), driver.ID, -20.15, 28.58, 5.0)
	require.NoError(t, err)

	assert.Equal(t, "bulawayo", trips.gotCity)
	assert.Equal(t, []trip.Category{trip.CategoryTruck}, trips.gotCategories)
}

// TestListOpenNearby_RadiusDefaultAndClamp tests radius handling
func TestListOpenNearby_RadiusDefaultAndClamp(t *testing.T) {
	driver := approvedDriver("harare")
	atFourKM := openTripAt(0.036, 0, time.Now()) // ~4km
	atSixtyKM := openTripAt(0.54, 0, time.Now()) // ~60km

	trips := &fakeTripRepo{open: []*trip.Trip{atFourKM, atSixtyKM}}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	// Zero radius falls back to the 5km default
	nearby, err := service.ListOpenNearby(context.Background(), driver.ID, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, atFourKM.ID, nearby[0].ID)

	// An oversized radius is clamped to the 50km maximum
	nearby, err = service.ListOpenNearby(context.Background(), driver.ID, 0, 0, 1000)
	require.NoError(t, err)
	require.Len(t, nearby, 1, "trip at 60km should stay outside the clamped radius")
}

// TestListOpenNearby_CapsResults tests the result limit
func TestListOpenNearby_CapsResults(t *testing.T) {
	driver := approvedDriver("harare")
	open := make([]*trip.Trip, 0, 10)
	for i := 0; i < 10; i++ {
		open = append(open, openTripAt(0.001*float64(i+1), 0, time.Now()))
	}

	trips := &fakeTripRepo{open: open}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	cfg := testConfig()
	cfg.MaxResults = 3
	service := NewService(trips, users, testLogger(t), cfg)

	nearby, err := service.ListOpenNearby(context.Background(), driver.ID, 0, 0, 10.0)
	require.NoError(t, err)
	assert.Len(t, nearby, 3)
}

// TestListOpenNearby_RejectsUnapprovedDriver tests the approval gate
func TestListOpenNearby_RejectsUnapprovedDriver(t *testing.T) {
	pending := approvedDriver("harare")
	pending.DriverStatus = user.DriverPending

	trips := &fakeTripRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{pending.ID: pending}}
	service := NewService(trips, users, testLogger(t), testConfig())

	_, err := service.ListOpenNearby(context.Background(), pending.ID, 0, 0, 5.0)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotApproved)
}

// TestListOpenNearby_RejectsForcedRiderMode tests forced rider mode blocks discovery
func TestListOpenNearby_RejectsForcedRiderMode(t *testing.T) {
	forced := approvedDriver("harare")
	forced.ForceRiderMode = true

	trips := &fakeTripRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{forced.ID: forced}}
	service := NewService(trips, users, testLogger(t), testConfig())

	_, err := service.ListOpenNearby(context.Background(), forced.ID, 0, 0, 5.0)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotApproved)
}

// TestListOpenNearby_RejectsSuspendedAccount tests the moderation gate
func TestListOpenNearby_RejectsSuspendedAccount(t *testing.T) {
	suspended := approvedDriver("harare")
	suspended.AccountStatus = user.AccountSuspended

	trips := &fakeTripRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{suspended.ID: suspended}}
	service := NewService(trips, users, testLogger(t), testConfig())

	_, err := service.ListOpenNearby(context.Background(), suspended.ID, 0, 0, 5.0)
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeAccessDenied, apperrors.GetAppError(err).Type)
}

// TestListOpenNearby_RejectsInvalidCoordinates tests coordinate validation
func TestListOpenNearby_RejectsInvalidCoordinates(t *testing.T) {
	driver := approvedDriver("harare")
	trips := &fakeTripRepo{}
	users := &fakeUserRepo{users: map[uuid.UUID]*user.User{driver.ID: driver}}
	service := NewService(trips, users, testLogger(t), testConfig())

	_, err := service.ListOpenNearby(context.Background(), driver.ID, 91, 0, 5.0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)

	_, err = service.ListOpenNearby(context.Background(), driver.ID, 0, -181, 5.0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
}
