package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const testMethod = "/learnstream.user.v1.UserQueryService/ListUsers"

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func peerContext(t *testing.T, hostport string) context.Context {
	addr, err := net.ResolveTCPAddr("tcp", hostport)
	require.NoError(t, err)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: addr})
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 10,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 5,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	resp, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 1,
		WindowSeconds:     1,
		Enabled:           false,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 2,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	ctx1 := peerContext(t, "192.168.1.1:12345")
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx1, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx1, nil, info, mockHandler)
	require.Error(t, err)

	ctx2 := peerContext(t, "192.168.1.2:12345")
	resp, err := interceptor(ctx2, nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 5,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	md := metadata.Pairs("x-forwarded-for", "203.0.113.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 3; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}

	got, err := mr.Get(Key(testMethod, "203.0.113.1"))
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestRateLimiter_DifferentMethods(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 2,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info1 := &grpc.UnaryServerInfo{FullMethod: testMethod}
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx, nil, info1, mockHandler)
		require.NoError(t, err)
	}

	info2 := &grpc.UnaryServerInfo{FullMethod: "/learnstream.user.v1.UserQueryService/FullNames"}
	resp, err := interceptor(ctx, nil, info2, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 2,
		WindowSeconds:     2,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	// 2 req/s over a 2s window allows 4
	for i := 0; i < 4; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)

	key := Key(testMethod, "127.0.0.1:12345")
	ttl := mr.TTL(key)
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 2.0)

	mr.FastForward(3 * time.Second)

	resp, err := interceptor(ctx, nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{
		RequestsPerSecond: 1,
		WindowSeconds:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	mr.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow(context.Background(), "scope", "client")
		assert.True(t, allowed)
	}
}

func TestRateLimiter_NilAllows(t *testing.T) {
	var rl *RateLimiter
	allowed, count := rl.Allow(context.Background(), "scope", "client")
	assert.True(t, allowed)
	assert.Zero(t, count)
}
