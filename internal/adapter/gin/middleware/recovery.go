package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/errors"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// Recovery turns a handler panic into a 500 response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(c.Request.Context(), log).Error("panic recovered in http handler",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				appErr := pkgerrors.Classify(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(appErr.HTTPStatus(), gin.H{
					"error":   appErr.Kind(),
					"message": appErr.Public(),
				})
			}
		}()
		c.Next()
	}
}
