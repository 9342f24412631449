package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/afltools/supercoach-optimizer/pkg/utils"
)

// RateLimit applies a per-client token bucket. rps is the sustained rate,
// burst the bucket size.
func RateLimit(rps int, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(clientIP string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[clientIP]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[clientIP] = limiter
		}
		return limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			utils.SendRateLimited(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
