package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a process-wide token bucket to every request.
// The limiter is shared, not per client, so it bounds total load on the
// database rather than enforcing per-user fairness.
func RateLimitMiddleware(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status": http.StatusTooManyRequests,
				"error":  "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
