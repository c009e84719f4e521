package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/utils"
)

// RateLimiter counts requests per client in fixed windows. Counters live in
// an LRU so an address flood cannot grow memory without bound.
type RateLimiter struct {
	limit    int
	counters *utils.Cache[string, int]
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		counters: utils.NewCache[string, int](10000, window),
	}
}

// WithClock is for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.counters.WithClock(now)
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	n := rl.counters.Update(key, func(cur int, ok bool) int {
		if !ok {
			return 1
		}
		return cur + 1
	})
	return n <= rl.limit
}

// RateLimit keys on the authenticated user when known and the client IP
// otherwise. A nil limiter or a non-positive limit disables it.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.limit <= 0 {
			c.Next()
			return
		}
		key := c.GetString(UserIDKey)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "TooManyRequests", "message": "too many requests"})
			return
		}
		c.Next()
	}
}
