package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
)

// SubmitBid handles POST /v1/trips/:id/offers
func (h *Handlers) SubmitBid(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitBidRequest
	if !h.bindJSON(c, &req) {
		return
	}

	b, err := h.Bidding.Submit(c.Request.Context(), tripID, middleware.UserID(c), req.OfferPrice, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// AcceptBid handles POST /v1/trips/:id/accept
func (h *Handlers) AcceptBid(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.AcceptBidRequest
	if !h.bindJSON(c, &req) {
		return
	}

	// The uuid binding tag already vetted the format
	bidID, _ := uuid.Parse(req.BidID)

	t, err := h.Bidding.Accept(c.Request.Context(), tripID, bidID, middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          t.ID,
		"status":      t.Status,
		"driver_id":   t.DriverID,
		"final_price": t.FinalPrice,
	})
}
