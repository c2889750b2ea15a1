package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/pkg/kvstore"
	"github.com/provenance-lab/origincheck/internal/pkg/response"
	"go.uber.org/zap"
)

const rateLimitMessage = "Çok fazla istek gönderdiniz. Lütfen biraz bekleyin."

// RateLimit allows limit requests per client IP in each fixed window. The
// counter lives in store so several instances can share it. Store failures
// let the request through.
func RateLimit(store kvstore.Store, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limit <= 0 || window <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		count, ttl, err := store.Incr(c.Request.Context(), "ratelimit:"+ip, window)
		if err != nil {
			log.Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = window
		}
		reset := strconv.Itoa(int(math.Ceil(ttl.Seconds())))

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", reset)

		if count > int64(limit) {
			c.Header("Retry-After", reset)
			response.TooManyRequests(c, rateLimitMessage)
			return
		}
		c.Next()
	}
}
