package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/rideinzw/dispatch/internal/domain/bid"
	"github.com/rideinzw/dispatch/internal/domain/favorite"
	"github.com/rideinzw/dispatch/internal/domain/location"
	"github.com/rideinzw/dispatch/internal/domain/review"
	"github.com/rideinzw/dispatch/internal/domain/token"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/domain/user"
)

var (
	_ user.Repository     = (*UserRepo)(nil)
	_ trip.Repository     = (*TripRepo)(nil)
	_ bid.Repository      = (*BidRepo)(nil)
	_ review.Repository   = (*ReviewRepo)(nil)
	_ favorite.Repository = (*FavoriteRepo)(nil)
	_ location.Repository = (*LocationRepo)(nil)
	_ token.Repository    = (*TokenRepo)(nil)
)

// Store bundles the SQL-backed repositories over one connection pool
type Store struct {
	Users     *UserRepo
	Trips     *TripRepo
	Bids      *BidRepo
	Reviews   *ReviewRepo
	Favorites *FavoriteRepo
	Locations *LocationRepo
	Tokens    *TokenRepo
}

// NewStore wires every repository to the shared pool
func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:     NewUserRepo(db),
		Trips:     NewTripRepo(db),
		Bids:      NewBidRepo(db),
		Reviews:   NewReviewRepo(db),
		Favorites: NewFavoriteRepo(db),
		Locations: NewLocationRepo(db),
		Tokens:    NewTokenRepo(db),
	}
}

// isUniqueViolation reports whether err is a violation of the named
// unique constraint. An empty name matches any unique constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
