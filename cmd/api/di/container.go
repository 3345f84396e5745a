package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmirHosein-Gharaati/learnstreamapi/cmd/api/infrastructure"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/cache"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/db"
	ginhandler "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/gin/handler"
	grpcadapter "github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/grpc/middleware"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/memory"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/repository/cached"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/config"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/user"
	redisclient "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/redis"
	"github.com/AmirHosein-Gharaati/learnstreamapi/seeds"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Repository  user.Repository
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter
	GinHandler  *ginhandler.UserHandler
	GRPCServer  *grpcadapter.UserQueryServer
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	repo, err := c.newStore(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		if cfg.Redis.CacheTTLSeconds > 0 {
			datasetCache := cache.NewRedisDatasetCache(
				rdb.Client,
				time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second,
				l,
			)
			repo = cached.NewCachedUserRepository(repo, datasetCache, l)
		}

		if cfg.RateLimit.Enabled {
			c.RateLimiter = middleware.NewRateLimiter(
				rdb.Client,
				middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
					WindowSeconds:     cfg.RateLimit.WindowSeconds,
					Enabled:           cfg.RateLimit.Enabled,
				},
				l,
			)
		}
	}
	c.Repository = repo

	if cfg.App.SeedOnStart {
		if err := seeds.Setup(ctx, repo, l); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
	}

	userUC := user.New(repo, l)
	c.UserUC = userUC
	c.GinHandler = ginhandler.NewUserHandler(userUC, l)
	c.GRPCServer = grpcadapter.NewUserQueryServer(userUC, l)

	return c, nil
}

// newStore builds the persistent repository for the configured driver.
func (c *Container) newStore(ctx context.Context) (user.Repository, error) {
	if c.Config.App.StorageDriver == config.StorageMemory {
		c.Logger.Info("using in-memory user store")
		return memory.NewUserRepo(), nil
	}

	gdb, err := infrastructure.NewDatabase(c.Config, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = gdb

	repo := db.NewUserRepoDB(gdb, c.Logger)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repo, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
