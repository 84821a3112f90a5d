package pricing

import (
	"errors"
	"math"

	"github.com/rideinzw/dispatch/internal/domain/trip"
)

// Service handles fare estimation. Estimates are advisory: the price a
// trip actually settles at comes out of bidding.
type Service struct {
	config Config
}

// Config holds the fare table
type Config struct {
	Currency string
	Rates    map[trip.Category]Rate
}

// Rate is the fare table entry for one category
type Rate struct {
	BaseFare  float64
	PerKM     float64
	PerMinute float64
}

// Estimate represents an advisory fare quote
type Estimate struct {
	Category     trip.Category `json:"category"`
	Currency     string        `json:"currency"`
	BaseFare     float64       `json:"base_fare"`
	DistanceKM   float64       `json:"distance_km"`
	DistanceFare float64       `json:"distance_fare"`
	TimeFare     float64       `json:"time_fare"`
	Total        float64       `json:"total"`
}

// Errors
var (
	ErrUnknownCategory = errors.New("unknown trip category")
	ErrInvalidDistance = errors.New("distance must not be negative")
	ErrInvalidDuration = errors.New("duration must not be negative")
)

// NewService creates a new pricing service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// EstimateFare computes an advisory fare for a category, distance and
// estimated duration
func (s *Service) EstimateFare(category trip.Category, distanceKM float64, durationMinutes int) (*Estimate, error) {
	rate, ok := s.config.Rates[category]
	if !ok {
		return nil, ErrUnknownCategory
	}
	if distanceKM < 0 {
		return nil, ErrInvalidDistance
	}
	if durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	distanceFare := roundCents(distanceKM * rate.PerKM)
	timeFare := roundCents(float64(durationMinutes) * rate.PerMinute)
	total := roundCents(rate.BaseFare + distanceFare + timeFare)

	return &Estimate{
		Category:     category,
		Currency:     s.config.Currency,
		BaseFare:     rate.BaseFare,
		DistanceKM:   distanceKM,
		DistanceFare: distanceFare,
		TimeFare:     timeFare,
		Total:        total,
	}, nil
}

// KnowsCategory reports whether the fare table has an entry for the
// category. Trip requests are cross-checked against the table before
// they are stored.
func (s *Service) KnowsCategory(category trip.Category) bool {
	_, ok := s.config.Rates[category]
	return ok
}

// Categories lists the categories the fare table knows about
func (s *Service) Categories() []trip.Category {
	out := make([]trip.Category, 0, len(s.config.Rates))
	for c := range s.config.Rates {
		out = append(out, c)
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
