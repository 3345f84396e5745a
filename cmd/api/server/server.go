package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/AmirHosein-Gharaati/learnstreamapi/cmd/api/di"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/config"
)

// Server holds the gRPC and Gin servers
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Gin    *http.Server

	grpcLis net.Listener
	ginLis  net.Listener
}

// New creates a new server instance from the container's dependencies
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   SetupGRPC(c.GRPCServer, c.RateLimiter, l),
		Gin:    SetupGinServer(c.GinHandler, c.RateLimiter, cfg.Logger.ServiceName, ":"+cfg.App.HTTPPort, l),
	}
}

// Start binds both ports and serves until both servers stop
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Listen binds the gRPC and HTTP ports
func (s *Server) Listen() error {
	lc := net.ListenConfig{}

	grpcLis, err := lc.Listen(context.Background(), "tcp", ":"+s.Config.App.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	ginLis, err := lc.Listen(context.Background(), "tcp", s.Gin.Addr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("failed to listen for HTTP: %w", err)
	}

	s.grpcLis = grpcLis
	s.ginLis = ginLis
	return nil
}

// GRPCAddr returns the bound gRPC address
func (s *Server) GRPCAddr() net.Addr {
	return s.grpcLis.Addr()
}

// HTTPAddr returns the bound HTTP address
func (s *Server) HTTPAddr() net.Addr {
	return s.ginLis.Addr()
}

// Serve runs both servers on the bound listeners. When one fails the other
// is stopped and the first failure is returned.
func (s *Server) Serve() error {
	g, ctx := errgroup.WithContext(context.Background())

	var running sync.WaitGroup
	running.Add(2)

	g.Go(func() error {
		defer running.Done()
		s.Logger.Info("gRPC server running", zap.String("address", s.GRPCAddr().String()))
		if err := s.GRPC.Serve(s.grpcLis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer running.Done()
		s.Logger.Info("Gin server running", zap.String("address", s.HTTPAddr().String()))
		if err := s.Gin.Serve(s.ginLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	stopped := make(chan struct{})
	go func() {
		running.Wait()
		close(stopped)
	}()

	g.Go(func() error {
		select {
		case <-ctx.Done():
			s.Logger.Warn("server failed, stopping the remaining transport")
			_ = s.Gin.Close()
			s.GRPC.Stop()
		case <-stopped:
		}
		return nil
	})

	return g.Wait()
}

// Shutdown stops the Gin server within ctx and drains the gRPC server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}
