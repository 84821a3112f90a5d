package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rideinzw/dispatch/internal/api/dto"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/domain/favorite"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// Me handles GET /v1/users/me
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.Users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMe handles PATCH /v1/users/me. Empty fields keep their current
// value.
func (h *Handlers) UpdateMe(c *gin.Context) {
	userID := middleware.UserID(c)

	var req dto.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.City != "" {
		u.City = req.City
	}

	if err := h.Users.Update(ctx, u); err != nil {
		h.respondError(c, errors.Internal("Failed to update profile", err))
		return
	}

	c.JSON(http.StatusOK, u)
}

// SetMode handles POST /v1/users/me/mode. Forced rider mode parks an
// approved driver on the rider side without touching their approval.
func (h *Handlers) SetMode(c *gin.Context) {
	userID := middleware.UserID(c)

	var req dto.SetModeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}
	if u.Role != user.RoleDriver {
		h.respondError(c, errors.InputError("Only drivers can toggle rider mode", nil))
		return
	}

	forced := *req.ForceRiderMode
	if err := h.Users.SetForceRiderMode(ctx, userID, forced); err != nil {
		h.respondError(c, errors.Internal("Failed to update mode", err))
		return
	}

	// A driver parked on the rider side must stop matching
	if forced && u.Online {
		if _, err := h.Presence.SetOnline(ctx, userID, false); err != nil {
			h.Logger.Warn("Failed to take driver offline on mode switch",
				logger.String("user_id", userID.String()),
				logger.Err(err),
			)
		}
	}

	u, err = h.Users.GetByID(ctx, userID)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to load profile", err))
		return
	}

	c.JSON(http.StatusOK, u)
}

// ListFavorites handles GET /v1/favorites
func (h *Handlers) ListFavorites(c *gin.Context) {
	fctx := favorite.Context(c.DefaultQuery("context", string(favorite.ContextDriver)))
	if !fctx.IsValid() {
		h.respondError(c, errors.InputError("Invalid context parameter", nil))
		return
	}

	favorites, err := h.Favorites.ListByUser(c.Request.Context(), middleware.UserID(c), fctx)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to list favorites", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

// AddFavorite handles POST /v1/favorites
func (h *Handlers) AddFavorite(c *gin.Context) {
	userID := middleware.UserID(c)

	var req dto.FavoriteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	targetID, _ := uuid.Parse(req.TargetUserID)
	if targetID == userID {
		h.respondError(c, errors.InputError("Cannot favorite yourself", nil))
		return
	}

	ctx := c.Request.Context()

	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}

	if err := h.Favorites.Add(ctx, userID, targetID, favoriteContext(target)); err != nil {
		h.respondError(c, errors.Internal("Failed to save favorite", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Favorite saved"})
}

// RemoveFavorite handles DELETE /v1/favorites/:id
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	targetID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		h.respondError(c, errors.ErrUserNotFound)
		return
	}

	if err := h.Favorites.Remove(ctx, middleware.UserID(c), targetID, favoriteContext(target)); err != nil {
		h.respondError(c, errors.Internal("Failed to remove favorite", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// favoriteContext picks the side a saved user lands on from their role
func favoriteContext(target *user.User) favorite.Context {
	if target.Role == user.RoleDriver {
		return favorite.ContextDriver
	}
	return favorite.ContextRider
}
