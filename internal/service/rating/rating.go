package rating

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/favorite"
	"github.com/rideinzw/dispatch/internal/domain/review"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
)

// Service handles post-trip reviews. A driver's rating is always the
// rounded mean over every stored review, recomputed from the reviews
// table after each insert, so a lost or replayed update cannot skew it.
type Service struct {
	trips     trip.Repository
	reviews   review.Repository
	users     user.Repository
	favorites favorite.Repository
	events    events.Publisher
	monitor   *monitoring.NewRelicApp
	logger    *logger.Logger
}

// NewService creates a rating service
func NewService(
	trips trip.Repository,
	reviews review.Repository,
	users user.Repository,
	favorites favorite.Repository,
	publisher events.Publisher,
	monitor *monitoring.NewRelicApp,
	log *logger.Logger,
) *Service {
	return &Service{
		trips:     trips,
		reviews:   reviews,
		users:     users,
		favorites: favorites,
		events:    publisher,
		monitor:   monitor,
		logger:    log,
	}
}

// SubmitInput carries a rider's post-trip feedback
type SubmitInput struct {
	Rating   float64
	Tags     []string
	Comment  string
	Favorite bool
}

// Submit stores the rider's review of a completed trip and folds it
// into the driver's aggregate. One review per trip.
func (s *Service) Submit(ctx context.Context, tripID, riderID uuid.UUID, in SubmitInput) (*review.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, errors.ErrInvalidRating
	}

	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if t.RiderID != riderID {
		return nil, errors.ErrNotTripRider
	}
	if t.Status != trip.StatusCompleted {
		return nil, errors.Conflict("Only completed trips can be reviewed", nil)
	}
	if t.DriverID == nil {
		return nil, errors.Internal("Completed trip has no driver", nil)
	}
	driverID := *t.DriverID

	rv := &review.Review{
		ID:        uuid.New(),
		TripID:    tripID,
		RiderID:   riderID,
		DriverID:  driverID,
		Rating:    review.RoundRating(in.Rating),
		Tags:      in.Tags,
		Comment:   in.Comment,
		Favorite:  in.Favorite,
		CreatedAt: time.Now().UTC(),
	}

	err = s.reviews.Create(ctx, rv)
	if err == review.ErrDuplicateReview {
		return nil, errors.ErrDuplicateReview
	}
	if err != nil {
		return nil, errors.Internal("Failed to store review", err)
	}

	s.refreshDriverRating(ctx, driverID)

	if in.Favorite {
		if err := s.favorites.Add(ctx, riderID, driverID, favorite.ContextDriver); err != nil {
			s.logger.Warn("Failed to save favorite driver",
				logger.String("rider_id", riderID.String()),
				logger.String("driver_id", driverID.String()),
				logger.Err(err),
			)
		}
	}

	s.logger.Info("Review submitted",
		logger.String("trip_id", tripID.String()),
		logger.String("driver_id", driverID.String()),
		logger.Float64("rating", rv.Rating),
	)

	s.events.Publish(ctx, events.TopicUser(driverID), events.TypeReviewReceived, rv)
	s.monitor.RecordReviewSubmitted(rv.Rating)

	return rv, nil
}

// ListForDriver returns a driver's reviews, newest first
func (s *Service) ListForDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*review.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reviews, err := s.reviews.ListByDriver(ctx, driverID, limit, offset)
	if err != nil {
		return nil, errors.Internal("Failed to list reviews", err)
	}
	return reviews, nil
}

// refreshDriverRating recomputes the aggregate from the store. The
// review row is already durable, so a failed refresh only leaves the
// cached aggregate stale until the next review lands.
func (s *Service) refreshDriverRating(ctx context.Context, driverID uuid.UUID) {
	avg, count, err := s.reviews.AggregateByDriver(ctx, driverID)
	if err != nil {
		s.logger.Warn("Failed to aggregate driver reviews",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
		return
	}
	if count == 0 {
		return
	}
	if err := s.users.UpdateRating(ctx, driverID, review.RoundRating(avg)); err != nil {
		s.logger.Warn("Failed to update driver rating",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
	}
}
