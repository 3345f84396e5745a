package memory

import (
	"context"
	"sync"

	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
)

// UserRepo keeps the dataset in an ordered slice.
// Records are copied on the way in and out so callers never share its storage.
type UserRepo struct {
	mu    sync.RWMutex
	users []domain.User
}

// NewUserRepo creates a repository holding a copy of the given users.
func NewUserRepo(users ...domain.User) *UserRepo {
	return &UserRepo{users: domain.CloneAll(users)}
}

// List returns a copy of all users in insertion order.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := domain.CloneAll(r.users)
	if out == nil {
		out = []domain.User{}
	}
	return out, nil
}

// Count returns the number of stored records.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

// Append adds users at the end.
func (r *UserRepo) Append(ctx context.Context, users ...domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = append(r.users, domain.CloneAll(users)...)
	return nil
}

// ReplaceAll swaps the stored list for a copy of users.
func (r *UserRepo) ReplaceAll(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = domain.CloneAll(users)
	return nil
}
