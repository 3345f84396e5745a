package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcadapter "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc/middleware"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// SetupGRPC creates and configures the gRPC server.
// rateLimiter may be nil.
func SetupGRPC(srv grpcadapter.UserQueryServiceServer, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcadapter.Register(grpcServer, srv)

	l.Info("gRPC service registered", zap.String("service", grpcadapter.ServiceName))
	return grpcServer
}
