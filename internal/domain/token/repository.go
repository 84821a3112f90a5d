package token

import "context"

// Repository defines the interface for the token revocation list
type Repository interface {
	// Revoke adds a token to the revocation list. Revoking the same
	// token twice is a no-op.
	Revoke(ctx context.Context, revoked *RevokedToken) error

	// IsRevoked reports whether the token ID has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
