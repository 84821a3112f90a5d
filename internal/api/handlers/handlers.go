package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rideinzw/dispatch/internal/auth"
	"github.com/rideinzw/dispatch/internal/config"
	"github.com/rideinzw/dispatch/internal/domain/favorite"
	"github.com/rideinzw/dispatch/internal/domain/token"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/internal/service/bidding"
	"github.com/rideinzw/dispatch/internal/service/lifecycle"
	"github.com/rideinzw/dispatch/internal/service/presence"
	"github.com/rideinzw/dispatch/internal/service/pricing"
	"github.com/rideinzw/dispatch/internal/service/proximity"
	"github.com/rideinzw/dispatch/internal/service/rating"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
	"github.com/rideinzw/dispatch/pkg/realtime"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Lifecycle *lifecycle.Service
	Bidding   *bidding.Service
	Rating    *rating.Service
	Presence  *presence.Service
	Proximity *proximity.Service
	Pricing   *pricing.Service

	Users     user.Repository
	Favorites favorite.Repository
	Tokens    token.Repository

	TokenManager *auth.TokenManager
	Redis        *redis.Client
	Hub          *realtime.Hub
	Monitor      *monitoring.NewRelicApp
	Logger       *logger.Logger
	WebSocket    config.WebSocketConfig
}

// respondError writes the error envelope with its mapped status code.
// Anything that is not an AppError surfaces as a 500 with a generic
// message; the cause goes to the log, not the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr.Status >= 500 {
		h.Logger.Error("Request failed",
			logger.Err(err),
			logger.String("path", c.FullPath()),
		)
	}
	c.JSON(appErr.Status, appErr.Envelope())
}

// bindJSON binds and validates the request body. On failure it writes
// the error response and returns false.
func (h *Handlers) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, errors.InputError("Invalid request payload", err))
		return false
	}
	return true
}

// pathUUID parses a UUID path parameter. On failure it writes the error
// response and returns false.
func (h *Handlers) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.respondError(c, errors.InputError("Invalid "+name+" parameter", err))
		return uuid.Nil, false
	}
	return id, true
}
