package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// UpdateDriverLocation handles POST /v1/driver/location
func (h *Handlers) UpdateDriverLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	loc, err := h.Presence.UpdateLocation(c.Request.Context(), middleware.UserID(c), req.Latitude, req.Longitude)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loc)
}

// SetDriverStatus handles POST /v1/driver/status
func (h *Handlers) SetDriverStatus(c *gin.Context) {
	var req dto.SetOnlineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.Presence.SetOnline(c.Request.Context(), middleware.UserID(c), *req.Online)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": u.ID, "online": u.Online})
}

// CreateDriverProfile handles POST /v1/driver/profile. Filing a profile
// turns the account into a driver pending approval; refiling resets an
// earlier decision back to pending.
func (h *Handlers) CreateDriverProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	var req dto.DriverProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if !trip.Category(req.VehicleCategory).IsValid() {
		h.respondError(c, errors.ErrInvalidCategory)
		return
	}

	ctx := c.Request.Context()

	if err := h.Users.SaveDriverProfile(ctx, userID, req.VehicleCategory, req.VehicleReg); err != nil {
		h.respondError(c, errors.Internal("Failed to save driver profile", err))
		return
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to load profile", err))
		return
	}

	h.Logger.Info("Driver profile filed",
		logger.String("user_id", userID.String()),
		logger.String("vehicle_category", req.VehicleCategory),
	)

	c.JSON(http.StatusCreated, u)
}

// AvailableTrips handles GET /v1/driver/trips/available
func (h *Handlers) AvailableTrips(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		h.respondError(c, errors.InputError("Invalid lat parameter", err))
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		h.respondError(c, errors.InputError("Invalid lng parameter", err))
		return
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(c, errors.InputError("Invalid radius parameter", err))
			return
		}
	}

	start := time.Now()
	trips, err := h.Proximity.ListOpenNearby(c.Request.Context(), middleware.UserID(c), lat, lng, radius)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Monitor.RecordProximityLatency(float64(time.Since(start).Milliseconds()))

	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}
