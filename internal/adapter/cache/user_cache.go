package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
)

// DatasetKey is the Redis key holding the cached dataset.
const DatasetKey = "users:dataset"

// DatasetCache defines caching of the whole ordered user list.
type DatasetCache interface {
	// Get returns the cached list, or nil on a cache miss.
	Get(ctx context.Context) ([]domain.User, error)

	// Set stores the list with the configured TTL.
	Set(ctx context.Context, users []domain.User) error

	// Invalidate drops the cached list.
	Invalidate(ctx context.Context) error
}

// RedisDatasetCache implements DatasetCache as a JSON array in Redis.
// A JSON array keeps order and duplicate IDs intact.
type RedisDatasetCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisDatasetCache creates a new Redis-backed dataset cache.
func NewRedisDatasetCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisDatasetCache {
	return &RedisDatasetCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get retrieves the dataset from Redis.
func (c *RedisDatasetCache) Get(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, DatasetKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("dataset cache miss")
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get dataset from cache", zap.Error(err))
		return nil, err
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		c.log.Error("failed to unmarshal cached dataset", zap.Error(err))
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}

	c.log.Debug("dataset cache hit", zap.Int("users", len(users)))
	return users, nil
}

// Set stores the dataset in Redis with TTL.
func (c *RedisDatasetCache) Set(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}

	data, err := json.Marshal(users)
	if err != nil {
		c.log.Error("failed to marshal dataset for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, DatasetKey, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set dataset cache", zap.Error(err))
		return err
	}

	c.log.Debug("cached dataset", zap.Int("users", len(users)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes the dataset from Redis.
func (c *RedisDatasetCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, DatasetKey).Err(); err != nil {
		c.log.Error("failed to invalidate dataset cache", zap.Error(err))
		return err
	}

	c.log.Debug("dataset cache invalidated")
	return nil
}
