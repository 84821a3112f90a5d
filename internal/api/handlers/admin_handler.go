package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// SetAccountStatus handles POST /v1/admin/users/:id/status
func (h *Handlers) SetAccountStatus(c *gin.Context) {
	targetID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.AccountStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	status := user.AccountStatus(req.Status)

	if err := h.Users.UpdateAccountStatus(c.Request.Context(), targetID, status); err != nil {
		if err == user.ErrUserNotFound {
			h.respondError(c, errors.ErrUserNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to update account status", err))
		return
	}

	h.Logger.Info("Account status changed",
		logger.String("user_id", targetID.String()),
		logger.String("status", req.Status),
		logger.String("reason", req.Reason),
		logger.String("admin_id", middleware.UserID(c).String()),
	)

	c.JSON(http.StatusOK, gin.H{"id": targetID, "account_status": status})
}

// SetDriverApproval handles POST /v1/admin/drivers/:id/approval
func (h *Handlers) SetDriverApproval(c *gin.Context) {
	targetID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.DriverApprovalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}
	if !target.DriverProfileExists {
		h.respondError(c, errors.Conflict("Driver profile has not been filed", nil))
		return
	}

	if err := h.Users.UpdateDriverStatus(ctx, targetID, user.DriverStatus(req.Decision)); err != nil {
		h.respondError(c, errors.Internal("Failed to record approval decision", err))
		return
	}

	target, err = h.Users.GetByID(ctx, targetID)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to load driver", err))
		return
	}

	h.Logger.Info("Driver approval recorded",
		logger.String("driver_id", targetID.String()),
		logger.String("decision", req.Decision),
		logger.String("admin_id", middleware.UserID(c).String()),
	)

	c.JSON(http.StatusOK, target)
}
