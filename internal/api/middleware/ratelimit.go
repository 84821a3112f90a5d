package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rideinzw/dispatch/pkg/cache"
	"github.com/rideinzw/dispatch/pkg/errors"
	"github.com/rideinzw/dispatch/pkg/logger"
)

// RateLimit enforces a fixed-window cap per caller using a Redis
// counter. The caller key is the authenticated user when present and
// the client IP otherwise. Redis errors let the request through.
func RateLimit(client *redis.Client, log *logger.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		caller := UserID(c).String()
		if caller == "00000000-0000-0000-0000-000000000000" {
			caller = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", name, caller)

		ctx := c.Request.Context()
		count, err := cache.Incr(ctx, client, key)
		if err != nil {
			log.Warn("Rate limit counter unavailable",
				logger.String("bucket", name),
				logger.Err(err),
			)
			c.Next()
			return
		}
		if count == 1 {
			if err := cache.Expire(ctx, client, key, window); err != nil {
				log.Warn("Failed to arm rate limit window",
					logger.String("bucket", name),
					logger.Err(err),
				)
			}
		}

		if count > int64(limit) {
			abort(c, errors.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
