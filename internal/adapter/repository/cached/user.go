package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/cache"
	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with a dataset cache in front
// of a persistent repository. Writes go to the store first, then drop the cache.
// A write returns an error when the cache could still hold the previous dataset.
type CachedUserRepository struct {
	store user.Repository
	cache cache.DatasetCache
	log   *zap.Logger
	group singleflight.Group
}

var _ user.Repository = (*CachedUserRepository)(nil)

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(store user.Repository, c cache.DatasetCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		store: store,
		cache: c,
		log:   log,
	}
}

// List returns the dataset using cache-aside. Concurrent misses share one store read.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if users, ok := r.fromCache(ctx); ok {
		return users, nil
	}

	result, err, shared := r.group.Do(cache.DatasetKey, func() (any, error) {
		// Another caller may have filled the cache while we waited
		if users, ok := r.fromCache(ctx); ok {
			return users, nil
		}

		users, err := r.store.List(ctx)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(ctx, users); err != nil {
			r.log.Warn("failed to cache dataset", zap.Error(err))
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	users := result.([]domain.User)
	if shared {
		// Each caller gets its own copy of the shared result
		users = domain.CloneAll(users)
	}
	return users, nil
}

func (r *CachedUserRepository) fromCache(ctx context.Context) ([]domain.User, bool) {
	users, err := r.cache.Get(ctx)
	if err != nil {
		r.log.Warn("cache get error, falling back to store", zap.Error(err))
		return nil, false
	}
	if users == nil {
		return nil, false
	}
	return users, true
}

// Count delegates to the store.
func (r *CachedUserRepository) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx)
}

// Append writes to the store and invalidates the cache.
func (r *CachedUserRepository) Append(ctx context.Context, users ...domain.User) error {
	if err := r.store.Append(ctx, users...); err != nil {
		return err
	}
	return r.invalidate(ctx)
}

// ReplaceAll writes to the store and invalidates the cache.
func (r *CachedUserRepository) ReplaceAll(ctx context.Context, users []domain.User) error {
	if err := r.store.ReplaceAll(ctx, users); err != nil {
		return err
	}
	return r.invalidate(ctx)
}

// invalidate drops the cached dataset. If the delete fails the cache is
// overwritten with the store's current list instead.
func (r *CachedUserRepository) invalidate(ctx context.Context) error {
	err := r.cache.Invalidate(ctx)
	if err == nil {
		return nil
	}
	r.log.Warn("failed to invalidate dataset cache, writing through", zap.Error(err))

	users, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh dataset cache: %w", err)
	}
	if err := r.cache.Set(ctx, users); err != nil {
		return fmt.Errorf("refresh dataset cache: %w", err)
	}
	return nil
}
