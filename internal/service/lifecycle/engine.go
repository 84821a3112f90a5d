package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/bid"
	"github.com/rideinzw/dispatch/internal/domain/location"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/internal/service/pricing"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

// Service drives a trip through its lifecycle. Every transition is
// written as a guarded update, so concurrent writers race on the row
// guard and exactly one wins; the loser surfaces a conflict instead of
// clobbering state.
type Service struct {
	trips   trip.Repository
	bids    bid.Repository
	users   user.Repository
	pricing *pricing.Service
	events  events.Publisher
	monitor *monitoring.NewRelicApp
	logger  *logger.Logger
}

// NewService creates a lifecycle service
func NewService(
	trips trip.Repository,
	bids bid.Repository,
	users user.Repository,
	pricing *pricing.Service,
	publisher events.Publisher,
	monitor *monitoring.NewRelicApp,
	log *logger.Logger,
) *Service {
	return &Service{
		trips:   trips,
		bids:    bids,
		users:   users,
		pricing: pricing,
		events:  publisher,
		monitor: monitor,
		logger:  log,
	}
}

// CreateInput carries everything a rider submits for a new trip
type CreateInput struct {
	Category         trip.Category
	PickupLatitude   float64
	PickupLongitude  float64
	DropoffLatitude  float64
	DropoffLongitude float64
	PickupAddress    string
	DropoffAddress   string
	City             string
	ProposedPrice    float64
	DistanceKM       float64
	DurationMinutes  int
	Note             string
	GuestName        string
	GuestPhone       string
	ItemDescription  string
	NeedsAssistance  bool
	CargoPhotoURLs   []string
}

// Create opens a new trip in PENDING and announces it to the rider's
// city. A rider can only have one non-terminal trip at a time.
func (s *Service) Create(ctx context.Context, riderID uuid.UUID, in CreateInput) (*trip.Trip, error) {
	if !location.ValidCoordinates(in.PickupLatitude, in.PickupLongitude) ||
		!location.ValidCoordinates(in.DropoffLatitude, in.DropoffLongitude) {
		return nil, errors.ErrInvalidCoordinates
	}
	if !in.Category.IsValid() || !s.pricing.KnowsCategory(in.Category) {
		return nil, errors.ErrInvalidCategory
	}
	if in.ProposedPrice <= 0 {
		return nil, errors.InputError("Proposed price must be positive", nil)
	}

	rider, err := s.users.GetByID(ctx, riderID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}
	if err := activeAccount(rider); err != nil {
		return nil, err
	}

	city := in.City
	if city == "" {
		city = rider.City
	}
	if city == "" {
		return nil, errors.InputError("City is required", nil)
	}

	active, err := s.trips.ActiveByRider(ctx, riderID)
	if err != nil {
		s.logger.Warn("Active trip check failed",
			logger.String("rider_id", riderID.String()),
			logger.Err(err),
		)
	}
	if active != nil {
		return nil, errors.ErrActiveTripExists
	}

	now := time.Now().UTC()
	t := &trip.Trip{
		ID:               uuid.New(),
		RiderID:          riderID,
		Status:           trip.StatusPending,
		VehicleType:      in.Category.VehicleType(),
		Category:         in.Category,
		PickupLatitude:   in.PickupLatitude,
		PickupLongitude:  in.PickupLongitude,
		DropoffLatitude:  in.DropoffLatitude,
		DropoffLongitude: in.DropoffLongitude,
		PickupAddress:    in.PickupAddress,
		DropoffAddress:   in.DropoffAddress,
		City:             city,
		ProposedPrice:    in.ProposedPrice,
		DistanceKM:       in.DistanceKM,
		DurationMinutes:  in.DurationMinutes,
		Note:             in.Note,
		GuestName:        in.GuestName,
		GuestPhone:       in.GuestPhone,
		ItemDescription:  in.ItemDescription,
		NeedsAssistance:  in.NeedsAssistance,
		CargoPhotoURLs:   in.CargoPhotoURLs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.trips.Create(ctx, t); err != nil {
		return nil, errors.Internal("Failed to create trip", err)
	}

	s.logger.Info("Trip created",
		logger.String("trip_id", t.ID.String()),
		logger.String("rider_id", riderID.String()),
		logger.String("category", string(t.Category)),
		logger.String("city", city),
		logger.Float64("proposed_price", t.ProposedPrice),
	)

	s.events.Publish(ctx, events.TopicCityTrips(city), events.TypeTripRequested, t)
	s.monitor.RecordTripRequested(string(t.Category), city)

	return t, nil
}

// ActiveTrip is a non-terminal trip together with the bids placed on it
type ActiveTrip struct {
	Trip *trip.Trip `json:"trip"`
	Bids []*bid.Bid `json:"bids"`
}

// Active returns the caller's current non-terminal trip, checking the
// rider side first and falling back to the driver side
func (s *Service) Active(ctx context.Context, userID uuid.UUID) (*ActiveTrip, error) {
	t, err := s.trips.ActiveByRider(ctx, userID)
	if err != nil {
		return nil, errors.Internal("Failed to load active trip", err)
	}
	if t == nil {
		t, err = s.trips.ActiveByDriver(ctx, userID)
		if err != nil {
			return nil, errors.Internal("Failed to load active trip", err)
		}
	}
	if t == nil {
		return nil, errors.ErrTripNotFound
	}

	bids, err := s.bids.ListByTrip(ctx, t.ID)
	if err != nil {
		s.logger.Warn("Failed to load bids for active trip",
			logger.String("trip_id", t.ID.String()),
			logger.Err(err),
		)
		bids = nil
	}

	return &ActiveTrip{Trip: t, Bids: bids}, nil
}

// Get returns a trip to one of its participants
func (s *Service) Get(ctx context.Context, tripID, userID uuid.UUID, role user.Role) (*trip.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if role != user.RoleAdmin && !t.IsParticipant(userID) {
		return nil, errors.ErrNotTripParticipant
	}
	return t, nil
}

// UpdateStatus moves a trip along the lifecycle. ACCEPTED is only
// reachable through bid acceptance and CANCELLED goes through Cancel,
// so this path carries the driver progression ARRIVED, STARTED and
// COMPLETED.
func (s *Service) UpdateStatus(ctx context.Context, tripID, actorID uuid.UUID, actorRole user.Role, to trip.Status) (*trip.Trip, error) {
	if !to.IsValid() {
		return nil, errors.InputError("Unknown trip status", trip.ErrInvalidStatus)
	}
	if to == trip.StatusCancelled {
		return s.Cancel(ctx, tripID, actorID, actorRole, "")
	}
	if to == trip.StatusAccepted || to == trip.StatusBidding {
		return nil, errors.InputError("Status is set through the bidding flow", nil)
	}

	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if actorRole != user.RoleAdmin {
		if t.DriverID == nil || *t.DriverID != actorID {
			return nil, errors.ErrNotTripDriver
		}
	}

	from := t.Status
	if !from.CanTransition(to) {
		return nil, errors.InvalidTransition(string(from), string(to))
	}

	now := time.Now().UTC()
	err = s.trips.UpdateStatusGuard(ctx, tripID, to, []trip.Status{from}, now)
	if err == trip.ErrStatusConflict {
		return nil, errors.Conflict("Trip status changed concurrently", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to update trip status", err)
	}

	t.Status = to
	t.UpdatedAt = now
	switch to {
	case trip.StatusArrived:
		t.ArrivedAt = &now
	case trip.StatusStarted:
		t.StartedAt = &now
	case trip.StatusCompleted:
		t.CompletedAt = &now
	}

	s.logger.Info("Trip status updated",
		logger.String("trip_id", tripID.String()),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
		logger.String("actor_id", actorID.String()),
	)

	if to == trip.StatusCompleted {
		s.recordCompletion(ctx, t)
	}

	s.events.Publish(ctx, events.TopicTrip(t.ID), events.TypeTripUpdated, t)
	s.events.Publish(ctx, events.TopicUser(t.RiderID), events.TypeTripUpdated, t)

	return t, nil
}

// Cancel ends a trip that has not started yet. Either participant may
// cancel; STARTED and terminal trips cannot be.
func (s *Service) Cancel(ctx context.Context, tripID, actorID uuid.UUID, actorRole user.Role, reason string) (*trip.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if actorRole != user.RoleAdmin && !t.IsParticipant(actorID) {
		return nil, errors.ErrNotTripParticipant
	}
	if !t.Status.IsCancellable() {
		return nil, errors.ErrTripNotCancellable
	}

	cancelledBy := "driver"
	switch {
	case actorRole == user.RoleAdmin:
		cancelledBy = "admin"
	case actorID == t.RiderID:
		cancelledBy = "rider"
	}

	stage := string(t.Status)
	now := time.Now().UTC()
	err = s.trips.Cancel(ctx, tripID, reason, cancelledBy, now)
	if err == trip.ErrStatusConflict {
		return nil, errors.ErrTripNotCancellable
	}
	if err != nil {
		return nil, errors.Internal("Failed to cancel trip", err)
	}

	t.Status = trip.StatusCancelled
	t.CancellationReason = reason
	t.CancelledBy = cancelledBy
	t.CancelledAt = &now
	t.UpdatedAt = now

	s.logger.Info("Trip cancelled",
		logger.String("trip_id", tripID.String()),
		logger.String("cancelled_by", cancelledBy),
		logger.String("stage", stage),
	)
	s.monitor.RecordTripCancelled(tripID.String(), stage)

	s.events.Publish(ctx, events.TopicTrip(t.ID), events.TypeTripCancelled, t)
	s.events.Publish(ctx, events.TopicCityTrips(t.City), events.TypeTripCancelled, t)
	if t.DriverID != nil && *t.DriverID != actorID {
		s.events.Publish(ctx, events.TopicUser(*t.DriverID), events.TypeTripCancelled, t)
	}
	if actorID != t.RiderID {
		s.events.Publish(ctx, events.TopicUser(t.RiderID), events.TypeTripCancelled, t)
	}

	return t, nil
}

// recordCompletion bumps both trip counters and emits the completion
// metric. Counter failures are logged, not surfaced; the transition
// already landed.
func (s *Service) recordCompletion(ctx context.Context, t *trip.Trip) {
	if err := s.users.IncrementTripCount(ctx, t.RiderID); err != nil {
		s.logger.Warn("Failed to bump rider trip count",
			logger.String("rider_id", t.RiderID.String()),
			logger.Err(err),
		)
	}
	if t.DriverID != nil {
		if err := s.users.IncrementTripCount(ctx, *t.DriverID); err != nil {
			s.logger.Warn("Failed to bump driver trip count",
				logger.String("driver_id", t.DriverID.String()),
				logger.Err(err),
			)
		}
	}

	finalPrice := t.ProposedPrice
	if t.FinalPrice != nil {
		finalPrice = *t.FinalPrice
	}
	s.monitor.RecordTripCompleted(t.ID.String(), finalPrice)
}

// activeAccount rejects suspended and banned accounts
func activeAccount(u *user.User) error {
	switch u.AccountStatus {
	case user.AccountSuspended:
		return errors.ErrAccountSuspended
	case user.AccountBanned:
		return errors.ErrAccountBanned
	}
	return nil
}
