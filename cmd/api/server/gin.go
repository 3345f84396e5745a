package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/gin/handler"
	ginrouter "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/gin/router"
	grpcmiddleware "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc/middleware"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	serviceName string,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(handler, rateLimiter, serviceName, l)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
