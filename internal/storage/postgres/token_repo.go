package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rideinzw/dispatch/internal/domain/token"
)

// TokenRepo is the PostgreSQL implementation of token.Repository
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo creates a token repository backed by the given pool
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Revoke adds a token to the revocation list. Revoking the same token
// twice is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, revoked *token.RevokedToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, user_id, reason, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (jti) DO NOTHING
	`, revoked.JTI, revoked.UserID, revoked.Reason, revoked.ExpiresAt, revoked.RevokedAt)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
	`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}
