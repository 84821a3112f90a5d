package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/service/rating"
)

// SubmitReview handles POST /v1/trips/:id/review
func (h *Handlers) SubmitReview(c *gin.Context) {
	tripID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rv, err := h.Rating.Submit(c.Request.Context(), tripID, middleware.UserID(c), rating.SubmitInput{
		Rating:   req.Rating,
		Tags:     req.Tags,
		Comment:  req.Comment,
		Favorite: req.Favorite,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted", "review_id": rv.ID})
}

// DriverReviews handles GET /v1/drivers/:id/reviews
func (h *Handlers) DriverReviews(c *gin.Context) {
	driverID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	reviews, err := h.Rating.ListForDriver(c.Request.Context(), driverID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}
