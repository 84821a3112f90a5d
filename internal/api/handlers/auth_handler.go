package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/auth"
	"github.com/rideinzw/dispatch/internal/domain/token"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// Signup handles POST /v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		h.respondError(c, errors.InputError(err.Error(), nil))
		return
	}

	// Admin accounts are provisioned out of band, never via signup
	role := user.RoleRider
	if req.Role != "" {
		role = user.Role(req.Role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to process password", err))
		return
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:            uuid.New(),
		Name:          req.Name,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         req.Phone,
		PasswordHash:  hash,
		Role:          role,
		AccountStatus: user.AccountActive,
		DriverStatus:  user.DriverNone,
		City:          req.City,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		if err == user.ErrEmailTaken {
			h.respondError(c, errors.Conflict("Email is already registered", err))
			return
		}
		h.respondError(c, errors.Internal("Failed to create account", err))
		return
	}

	signed, _, err := h.TokenManager.Mint(u.ID.String(), string(u.Role))
	if err != nil {
		h.respondError(c, errors.Internal("Failed to issue token", err))
		return
	}

	h.Logger.Info("Account created",
		logger.String("user_id", u.ID.String()),
		logger.String("role", string(u.Role)),
		logger.String("city", u.City),
	)

	c.JSON(http.StatusCreated, gin.H{"token": signed, "user": u})
}

// Login handles POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same answer for unknown email and bad password
		h.respondError(c, errors.Unauthorized("Invalid email or password", nil))
		return
	}
	if !auth.CheckPasswordHash(req.Password, u.PasswordHash) {
		h.respondError(c, errors.Unauthorized("Invalid email or password", nil))
		return
	}

	switch u.AccountStatus {
	case user.AccountSuspended:
		h.respondError(c, errors.ErrAccountSuspended)
		return
	case user.AccountBanned:
		h.respondError(c, errors.ErrAccountBanned)
		return
	}

	signed, _, err := h.TokenManager.Mint(u.ID.String(), string(u.Role))
	if err != nil {
		h.respondError(c, errors.Internal("Failed to issue token", err))
		return
	}

	h.Logger.Info("User logged in", logger.String("user_id", u.ID.String()))

	c.JSON(http.StatusOK, gin.H{"token": signed, "user": u})
}

// Logout handles POST /v1/auth/logout. The presented token goes on the
// revocation list and stops verifying immediately.
func (h *Handlers) Logout(c *gin.Context) {
	claims := middleware.TokenClaims(c)
	if claims == nil {
		h.respondError(c, errors.ErrInvalidToken)
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	revoked := &token.RevokedToken{
		JTI:       claims.ID,
		UserID:    middleware.UserID(c),
		Reason:    token.ReasonLogout,
		ExpiresAt: expiresAt,
		RevokedAt: time.Now().UTC(),
	}

	if err := h.Tokens.Revoke(c.Request.Context(), revoked); err != nil {
		h.respondError(c, errors.Internal("Failed to revoke token", err))
		return
	}

	h.Logger.Info("Token revoked",
		logger.String("user_id", revoked.UserID.String()),
		logger.String("reason", revoked.Reason),
	)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
