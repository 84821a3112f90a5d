package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/domain/favorite"
)

// FavoriteRepo is the PostgreSQL implementation of favorite.Repository
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo creates a favorite repository backed by the given pool
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add saves the target in the given context. Adding twice is a no-op.
func (r *FavoriteRepo) Add(ctx context.Context, userID, targetID uuid.UUID, fctx favorite.Context) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, target_user_id, context, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, target_user_id, context) DO NOTHING
	`, userID, targetID, fctx)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove unsaves the target. Removing a non-favorite is a no-op.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, targetID uuid.UUID, fctx favorite.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = $1 AND target_user_id = $2 AND context = $3
	`, userID, targetID, fctx)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// Exists reports whether the target is saved by the user
func (r *FavoriteRepo) Exists(ctx context.Context, userID, targetID uuid.UUID, fctx favorite.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorites
			WHERE user_id = $1 AND target_user_id = $2 AND context = $3
		)
	`, userID, targetID, fctx).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// ListByUser retrieves the user's favorites in a context, newest first
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID, fctx favorite.Context) ([]*favorite.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, target_user_id, context, created_at
		FROM favorites
		WHERE user_id = $1 AND context = $2
		ORDER BY created_at DESC
	`, userID, fctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*favorite.Favorite, 0)
	for rows.Next() {
		var f favorite.Favorite
		if err := rows.Scan(&f.UserID, &f.TargetUserID, &f.Context, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return favorites, nil
}
