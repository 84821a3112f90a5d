package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/rideinzw/dispatch/internal/api/handlers"
	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/config"
	"github.com/rideinzw/dispatch/internal/domain/user"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application, cfg *config.Config) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Rate limiting keys off Redis; a nil client turns a limiter into a
	// pass-through
	var limiterClient *redis.Client
	if cfg.RateLimit.Enabled {
		limiterClient = h.Redis
	}
	limit := func(name string, perWindow int, window time.Duration) gin.HandlerFunc {
		return middleware.RateLimit(limiterClient, h.Logger, name, perWindow, window)
	}

	authed := middleware.Auth(h.TokenManager, h.Tokens, h.Logger)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public auth endpoints
		auth := v1.Group("/auth", limit("general", cfg.RateLimit.GeneralPerMinute, time.Minute))
		{
			auth.POST("/signup", h.Signup)
			auth.POST("/login", h.Login)
			auth.POST("/logout", authed, h.Logout)
		}

		// Everything below requires a verified, unrevoked token
		private := v1.Group("", authed)
		{
			// WebSocket connection
			private.GET("/ws", h.HandleWebSocket)

			// Trip lifecycle and bidding
			trips := private.Group("/trips")
			{
				trips.POST("", limit("trips", cfg.RateLimit.TripRequestsPerMinute, time.Minute), h.CreateTrip)
				trips.GET("/active", h.ActiveTrip)
				trips.GET("/:id", h.GetTrip)
				trips.POST("/:id/cancel", h.CancelTrip)
				trips.POST("/:id/status", h.UpdateTripStatus)
				trips.POST("/:id/offers",
					middleware.RequireRole(user.RoleDriver),
					limit("bids", cfg.RateLimit.BidsPerMinute, time.Minute),
					h.SubmitBid,
				)
				trips.POST("/:id/accept", h.AcceptBid)
				trips.POST("/:id/review", h.SubmitReview)
			}

			// Driver surface. Profile filing stays open to riders, that is
			// how an account becomes a driver.
			private.POST("/driver/profile", h.CreateDriverProfile)
			driver := private.Group("/driver", middleware.RequireRole(user.RoleDriver))
			{
				driver.POST("/location",
					limit("location", cfg.RateLimit.LocationUpdatesPerSecond, time.Second),
					h.UpdateDriverLocation,
				)
				driver.POST("/status", h.SetDriverStatus)
				driver.GET("/trips/available", h.AvailableTrips)
			}

			// Profile and favorites
			private.GET("/users/me", h.Me)
			private.PATCH("/users/me", h.UpdateMe)
			private.POST("/users/me/mode", h.SetMode)
			private.GET("/drivers/:id/reviews", h.DriverReviews)
			private.GET("/favorites", h.ListFavorites)
			private.POST("/favorites", h.AddFavorite)
			private.DELETE("/favorites/:id", h.RemoveFavorite)

			// Fare table lookup
			private.GET("/fares/estimate", h.EstimateFare)

			// Admin surface
			admin := private.Group("/admin", middleware.RequireRole(user.RoleAdmin))
			{
				admin.POST("/users/:id/status", h.SetAccountStatus)
				admin.POST("/drivers/:id/approval", h.SetDriverApproval)
			}
		}
	}
}
