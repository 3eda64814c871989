package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig bounds inbound request throughput. This is a coarse
// process-wide gate in front of the dispatcher, whose minute and hour
// budgets govern the upstream calls themselves.
type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter shares one token bucket across all clients.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(config.Rate, config.Burst),
	}
}

// RateLimit rejects over-budget requests with 429 instead of queueing them.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded, retry shortly",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}
