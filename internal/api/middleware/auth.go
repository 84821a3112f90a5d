package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/auth"
	"github.com/rideinzw/dispatch/internal/domain/token"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// Context keys set by Auth
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextClaims = "claims"
)

// Auth verifies the bearer token, checks the revocation list and puts
// the caller's identity on the request context. The denylist check
// fails closed: when the store cannot answer, the request is refused.
func Auth(tokens *auth.TokenManager, revoked token.Repository, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			abort(c, errors.Unauthorized("Missing bearer token", nil))
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			abort(c, errors.ErrInvalidToken)
			return
		}

		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("Revocation check failed", logger.Err(err))
			abort(c, errors.Internal("Failed to verify token", err))
			return
		}
		if isRevoked {
			abort(c, errors.ErrTokenRevoked)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abort(c, errors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, user.Role(claims.Role))
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole allows only the given roles past. It must run after Auth.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abort(c, errors.AccessDenied("Insufficient permissions", nil))
	}
}

// bearerToken pulls the token from the Authorization header, falling
// back to the query string for WebSocket clients that cannot set
// headers
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// UserID returns the authenticated caller's ID
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Role returns the authenticated caller's role
func Role(c *gin.Context) user.Role {
	if v, ok := c.Get(ContextRole); ok {
		if role, ok := v.(user.Role); ok {
			return role
		}
	}
	return ""
}

// TokenClaims returns the verified claims of the presented token
func TokenClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// abort writes the error envelope and stops the chain
func abort(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	c.AbortWithStatusJSON(appErr.Status, appErr.Envelope())
}
