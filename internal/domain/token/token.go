package token

import (
	"time"

	"github.com/google/uuid"
)

// Revocation reasons
const (
	ReasonLogout    = "logout"
	ReasonSuspended = "account_suspended"
	ReasonBanned    = "account_banned"
)

// RevokedToken records a token invalidated before its natural expiry.
// The revocation list is append-only; entries are kept past expiry as
// an audit trail.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
	ExpiresAt time.Time `json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}
