package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/bid"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

// Service arbitrates bids on open trips. Submission relies on the
// store's uniqueness constraint and acceptance on a single conditional
// update, so neither path carries a check-then-act race.
type Service struct {
	trips   trip.Repository
	bids    bid.Repository
	users   user.Repository
	events  events.Publisher
	monitor *monitoring.NewRelicApp
	logger  *logger.Logger
}

// NewService creates a bidding service
func NewService(
	trips trip.Repository,
	bids bid.Repository,
	users user.Repository,
	publisher events.Publisher,
	monitor *monitoring.NewRelicApp,
	log *logger.Logger,
) *Service {
	return &Service{
		trips:   trips,
		bids:    bids,
		users:   users,
		events:  publisher,
		monitor: monitor,
		logger:  log,
	}
}

// Submit places a driver's offer on an open trip. The first bid moves
// the trip from PENDING to BIDDING.
func (s *Service) Submit(ctx context.Context, tripID, driverID uuid.UUID, amount float64, note string) (*bid.Bid, error) {
	if amount <= 0 {
		return nil, errors.InputError("Offer price must be positive", bid.ErrInvalidAmount)
	}

	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}
	switch driver.AccountStatus {
	case user.AccountSuspended:
		return nil, errors.ErrAccountSuspended
	case user.AccountBanned:
		return nil, errors.ErrAccountBanned
	}
	if !driver.CanDrive() {
		return nil, errors.ErrDriverNotApproved
	}

	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if t.RiderID == driverID {
		return nil, errors.InputError("Cannot bid on your own trip", nil)
	}
	if !t.Status.IsOpen() {
		return nil, errors.ErrTripNotOpen
	}

	now := time.Now().UTC()
	b := &bid.Bid{
		ID:        uuid.New(),
		TripID:    tripID,
		DriverID:  driverID,
		Amount:    amount,
		Note:      note,
		Status:    bid.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.bids.Create(ctx, b)
	if err == bid.ErrDuplicateBid {
		return nil, errors.ErrDuplicateBid
	}
	if err != nil {
		return nil, errors.Internal("Failed to place bid", err)
	}

	// First bid flips the trip to BIDDING; the guard makes it a no-op
	// when a concurrent bid or acceptance got there first.
	if err := s.trips.MarkBidding(ctx, tripID); err != nil {
		s.logger.Warn("Failed to mark trip bidding",
			logger.String("trip_id", tripID.String()),
			logger.Err(err),
		)
	}

	s.logger.Info("Bid placed",
		logger.String("bid_id", b.ID.String()),
		logger.String("trip_id", tripID.String()),
		logger.String("driver_id", driverID.String()),
		logger.Float64("amount", amount),
	)

	s.events.Publish(ctx, events.TopicTrip(tripID), events.TypeBidPlaced, b)
	s.events.Publish(ctx, events.TopicUser(t.RiderID), events.TypeBidPlaced, b)
	s.monitor.RecordBidSubmitted(t.City, amount)

	return b, nil
}

// Accept settles an open trip on the chosen bid. The authoritative
// write is the trips.Accept conditional update; when two acceptances
// race, the affected-row count decides the winner and the loser gets a
// conflict. Retrying an acceptance that already won is a no-op.
func (s *Service) Accept(ctx context.Context, tripID, bidID, riderID uuid.UUID) (*trip.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if t.RiderID != riderID {
		return nil, errors.ErrNotTripRider
	}

	b, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, errors.ErrBidNotFound
	}
	if b.TripID != tripID {
		return nil, errors.InputError("Bid does not belong to this trip", nil)
	}

	if t.Status == trip.StatusAccepted && t.DriverID != nil && *t.DriverID == b.DriverID {
		return t, nil
	}
	if !t.Status.IsOpen() {
		return nil, errors.ErrTripNotOpen
	}

	now := time.Now().UTC()
	err = s.trips.Accept(ctx, tripID, b.DriverID, b.Amount, now)
	if err == trip.ErrTripNotOpen {
		// Lost the race. If the winner was this same bid on another
		// request, report success anyway.
		current, getErr := s.trips.GetByID(ctx, tripID)
		if getErr == nil && current.Status == trip.StatusAccepted &&
			current.DriverID != nil && *current.DriverID == b.DriverID {
			return current, nil
		}
		return nil, errors.ErrTripNotOpen
	}
	if err != nil {
		return nil, errors.Internal("Failed to accept bid", err)
	}

	t.Status = trip.StatusAccepted
	t.DriverID = &b.DriverID
	t.FinalPrice = &b.Amount
	t.AcceptedAt = &now
	t.UpdatedAt = now

	// Bid bookkeeping is best-effort once the trip row has settled;
	// the trip remains the source of truth for the winner.
	if err := s.bids.MarkAccepted(ctx, bidID); err != nil {
		s.logger.Warn("Failed to mark winning bid",
			logger.String("bid_id", bidID.String()),
			logger.Err(err),
		)
	}
	if err := s.bids.RejectOthers(ctx, tripID, bidID); err != nil {
		s.logger.Warn("Failed to reject losing bids",
			logger.String("trip_id", tripID.String()),
			logger.Err(err),
		)
	}

	s.logger.Info("Bid accepted",
		logger.String("trip_id", tripID.String()),
		logger.String("bid_id", bidID.String()),
		logger.String("driver_id", b.DriverID.String()),
		logger.Float64("final_price", b.Amount),
	)

	s.notifyOutcome(ctx, t, b)
	s.monitor.RecordBidAccepted(tripID.String(), b.Amount)

	return t, nil
}

// notifyOutcome tells the winner, the losers and anyone watching the
// trip how arbitration ended
func (s *Service) notifyOutcome(ctx context.Context, t *trip.Trip, winner *bid.Bid) {
	s.events.Publish(ctx, events.TopicUser(winner.DriverID), events.TypeBidAccepted, t)
	s.events.Publish(ctx, events.TopicTrip(t.ID), events.TypeTripUpdated, t)
	s.events.Publish(ctx, events.TopicCityTrips(t.City), events.TypeTripUpdated, t)

	all, err := s.bids.ListByTrip(ctx, t.ID)
	if err != nil {
		s.logger.Warn("Failed to list bids for loser notification",
			logger.String("trip_id", t.ID.String()),
			logger.Err(err),
		)
		return
	}
	for _, other := range all {
		if other.ID == winner.ID {
			continue
		}
		s.events.Publish(ctx, events.TopicUser(other.DriverID), events.TypeBidRejected, t)
	}
}
