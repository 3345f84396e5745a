package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/gin/handler"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/gin/middleware"
	grpcmiddleware "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc/middleware"
)

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	serviceName string,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RateLimiter(rateLimiter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/providers", userHandler.GroupByEmailProvider)
			users.GET("/interests", userHandler.DistinctInterests)
			users.GET("/interests/count", userHandler.CountInterest)
			users.GET("/ids/distinct", userHandler.DistinctIDs)
			users.GET("/ids/duplicated", userHandler.DuplicatedIDs)
			users.GET("/emails/count", userHandler.CountByEmailSuffix)
			users.POST("/emails/trim", userHandler.TrimAllEmails)
			users.GET("/filter", userHandler.FilterBySuffixAndMinAge)
			users.GET("/first", userHandler.FirstWithMinAge)
			users.GET("/full-names", userHandler.FullNames)
			users.GET("/lookup", userHandler.FindByIDs)
		}
	}

	return router
}
