package seeds

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
)

// Store is the subset of the user repository needed for seeding.
type Store interface {
	Count(ctx context.Context) (int64, error)
	Append(ctx context.Context, users ...domain.User) error
}

// Users returns a fresh copy of the canonical dataset.
// IDs 2 and 5 appear twice and the last user has no interests.
func Users() []domain.User {
	return []domain.User{
		{ID: 1, FirstName: "Amirhosein", LastName: "Gharaati", Email: "amirgh1380@gmail.com", Age: 22, Interests: []string{"computer", "board games"}},
		{ID: 2, FirstName: "Mohammad", LastName: "Shoja", Email: "rezajsh@yahoo.com", Age: 26, Interests: []string{"computer", "guitar"}},
		{ID: 3, FirstName: "Babak", LastName: "Ahmadi", Email: "babakahmadi@gmail.com", Age: 33, Interests: []string{"shopping"}},
		{ID: 2, FirstName: "Robin", LastName: "Eklund", Email: "robin.eklund@twitter.com", Age: 28, Interests: []string{"reading"}},
		{ID: 5, FirstName: "Amir", LastName: "Tavakoli", Email: "amirtvkli@gmail.com", Age: 30, Interests: []string{"reading", "computer", "cooking"}},
		{ID: 5, FirstName: "Farhad", LastName: "Kiani", Email: "farhadkiani@focalpay.se", Age: 28, Interests: []string{}},
	}
}

// Setup loads the canonical dataset into an empty store.
// A store that already holds records is left untouched.
func Setup(ctx context.Context, store Store, log *zap.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		log.Info("seed skipped, store not empty", zap.Int64("users", n))
		return nil
	}

	users := Users()
	if err := store.Append(ctx, users...); err != nil {
		return fmt.Errorf("insert users: %w", err)
	}

	log.Info("seeding complete", zap.Int("users", len(users)))
	return nil
}
