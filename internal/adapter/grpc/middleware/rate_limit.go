package middleware

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// KeyPrefix prefixes every rate limit counter key.
const KeyPrefix = "ratelimit"

// fixedWindow increments the counter and arms its expiry on the first hit.
var fixedWindow = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
	end
	return count
`)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	WindowSeconds     int
	Enabled           bool
}

// MaxRequests is the number of requests allowed per window.
func (c RateLimiterConfig) MaxRequests() int64 {
	return int64(c.RequestsPerSecond * float64(c.WindowSeconds))
}

// RateLimiter implements fixed-window rate limiting backed by Redis.
// It is shared by the gRPC interceptor and the Gin middleware.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
	}
}

// Config returns the limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Key builds the counter key for a scope (method or route) and client.
func Key(scope, client string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, scope, client)
}

// Allow records one request for scope and client and reports whether it fits
// in the current window. Redis failures fail open.
func (rl *RateLimiter) Allow(ctx context.Context, scope, client string) (bool, int64) {
	if rl == nil || !rl.config.Enabled {
		return true, 0
	}

	count, err := fixedWindow.Run(ctx, rl.client, []string{Key(scope, client)}, rl.config.WindowSeconds).Int64()
	if err != nil {
		rl.log.Warn("rate limiter redis error, allowing request",
			zap.String("client_ip", client),
			zap.String("scope", scope),
			zap.Error(err),
		)
		return true, 0
	}

	if count > rl.config.MaxRequests() {
		rl.log.Warn("rate limit exceeded",
			zap.String("client_ip", client),
			zap.String("scope", scope),
			zap.Int64("count", count),
			zap.Float64("limit", rl.config.RequestsPerSecond),
		)
		return false, count
	}
	return true, count
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !rl.config.Enabled {
			return handler(ctx, req)
		}

		allowed, count := rl.Allow(ctx, info.FullMethod, clientIP(ctx))
		if !allowed {
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded: %d requests in %d seconds (limit: %.0f req/s)",
				count, rl.config.WindowSeconds, rl.config.RequestsPerSecond)
		}

		return handler(ctx, req)
	}
}

// clientIP extracts the client IP address from the gRPC context.
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if xff := md.Get("x-forwarded-for"); len(xff) > 0 {
			return xff[0]
		}
		if xri := md.Get("x-real-ip"); len(xri) > 0 {
			return xri[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok {
		return p.Addr.String()
	}

	return "unknown"
}
