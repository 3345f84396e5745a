package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	grpcmiddleware "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc/middleware"
)

// RateLimiter returns a Gin middleware sharing the gRPC fixed-window limiter.
// A nil limiter disables limiting.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		scope := c.Request.Method + " " + c.FullPath()
		allowed, count := limiter.Allow(c.Request.Context(), scope, c.ClientIP())
		if !allowed {
			cfg := limiter.Config()
			msg := fmt.Sprintf("rate limit exceeded: %d requests in %d seconds (limit: %.0f req/s)",
				count, cfg.WindowSeconds, cfg.RequestsPerSecond)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": msg,
			})
			return
		}

		c.Next()
	}
}
