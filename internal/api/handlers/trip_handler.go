package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/service/lifecycle"
	"github.com/rideinzw/dispatch/pkg/cache"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// idempotencyWindow is how long a trip creation can be replayed by key
const idempotencyWindow = 24 * time.Hour

// CreateTrip handles POST /v1/trips
func (h *Handlers) CreateTrip(c *gin.Context) {
	riderID := middleware.UserID(c)

	var req dto.CreateTripRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	// Replay protection: a retried request with the same key returns the
	// trip the first attempt created instead of a duplicate conflict
	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey != "" && h.Redis != nil {
		cacheKey := fmt.Sprintf("trips:idempotency:%s:%s", riderID, idemKey)
		if cached, err := cache.Get(ctx, h.Redis, cacheKey); err == nil && cached != "" {
			if tripID, perr := uuid.Parse(cached); perr == nil {
				if t, gerr := h.Lifecycle.Get(ctx, tripID, riderID, middleware.Role(c)); gerr == nil {
					h.Logger.Info("Returning trip for replayed idempotency key",
						logger.String("trip_id", tripID.String()),
						logger.String("idempotency_key", idemKey),
					)
					c.JSON(http.StatusOK, t)
					return
				}
			}
		}
	}

	t, err := h.Lifecycle.Create(ctx, riderID, lifecycle.CreateInput{
		Category:         trip.Category(req.Category),
		PickupLatitude:   req.PickupLatitude,
		PickupLongitude:  req.PickupLongitude,
		DropoffLatitude:  req.DropoffLatitude,
		DropoffLongitude: req.DropoffLongitude,
		PickupAddress:    req.PickupAddress,
		DropoffAddress:   req.DropoffAddress,
		City:             req.City,
		ProposedPrice:    req.ProposedPrice,
		DistanceKM:       req.DistanceKM,
		DurationMinutes:  req.DurationMinutes,
		Note:             req.Note,
		GuestName:        req.GuestName,
		GuestPhone:       req.GuestPhone,
		ItemDescription:  req.ItemDescription,
		NeedsAssistance:  req.NeedsAssistance,
		CargoPhotoURLs:   req.CargoPhotoURLs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if idemKey != "" && h.Redis != nil {
		cacheKey := fmt.Sprintf("trips:idempotency:%s:%s", riderID, idemKey)
		if err := cache.SetWithExpiry(ctx, h.Redis, cacheKey, t.ID.String(), idempotencyWindow); err != nil {
			h.Logger.Warn("Failed to store idempotency key", logger.Err(err))
		}
	}

	c.JSON(http.StatusCreated, t)
}

// ActiveTrip handles GET /v1/trips/active
func (h *Handlers) ActiveTrip(c *gin.Context) {
	active, err := h.Lifecycle.Active(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, active)
}

// GetTrip handles GET /v1/trips/:id
func (h *Handlers) GetTrip(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	t, err := h.Lifecycle.Get(c.Request.Context(), tripID, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *Handlers) CancelTrip(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	// The reason body is optional
	var req dto.CancelTripRequest
	if c.Request.ContentLength > 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	t, err := h.Lifecycle.Cancel(c.Request.Context(), tripID, middleware.UserID(c), middleware.Role(c), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": t.ID, "status": t.Status})
}

// UpdateTripStatus handles POST /v1/trips/:id/status
func (h *Handlers) UpdateTripStatus(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTripStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	to := trip.Status(strings.ToUpper(req.Status))
	t, err := h.Lifecycle.UpdateStatus(c.Request.Context(), tripID, middleware.UserID(c), middleware.Role(c), to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// EstimateFare handles GET /v1/fares/estimate. The estimate is advisory;
// the price a trip settles at comes out of bidding.
func (h *Handlers) EstimateFare(c *gin.Context) {
	category := trip.Category(c.Query("category"))

	distance, err := strconv.ParseFloat(c.DefaultQuery("distance_km", "0"), 64)
	if err != nil {
		h.respondError(c, errors.InputError("Invalid distance_km parameter", err))
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration_min", "0"))
	if err != nil {
		h.respondError(c, errors.InputError("Invalid duration_min parameter", err))
		return
	}

	estimate, err := h.Pricing.EstimateFare(category, distance, duration)
	if err != nil {
		h.respondError(c, errors.InputError(err.Error(), err))
		return
	}

	c.JSON(http.StatusOK, estimate)
}
