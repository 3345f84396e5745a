package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// RequestID reuses the X-Request-ID header or generates one, stores it on
// the request context and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Header(logger.RequestIDHeader, requestID)
		c.Next()
	}
}
