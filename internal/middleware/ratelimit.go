package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter is a fixed-window counter backed by redis, applied to the
// credential endpoints (staff login and the external form gate). When redis
// is unavailable requests pass through; throttling degrades, auth does not.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *logrus.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// client IP and route.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *logrus.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Limit returns the gin middleware for one named route bucket.
func (r *RateLimiter) Limit(bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.client == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", bucket, c.ClientIP())
		ctx := c.Request.Context()

		count, err := r.client.Incr(ctx, key).Result()
		if err != nil {
			r.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
				r.logger.WithError(err).Warn("Failed to set rate limit window")
			}
		}

		if count > int64(r.limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
