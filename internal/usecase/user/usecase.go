package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/query"
	pkgerrors "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/errors"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/security"
)

// Repository defines the storage of the user dataset.
// Implementations keep records in order and never collapse duplicate IDs.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)           // All users in storage order
	Count(ctx context.Context) (int64, error)                  // Number of records
	Append(ctx context.Context, users ...domain.User) error    // Add records at the end
	ReplaceAll(ctx context.Context, users []domain.User) error // Rewrite the whole list
}

// UserUsecase runs the query operations against the repository.
// Reads share a lock; TrimAllEmails holds it exclusively until the
// trimmed list is written back.
type UserUsecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	mu       sync.RWMutex
}

var _ Usecase = (*UserUsecase)(nil)

// New creates a new UserUsecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a single ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "gte", "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "lte", "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// validateTerm applies the free-text rules to a named term.
func validateTerm(field, term string) error {
	if err := security.ValidateQueryTerm(term); err != nil {
		return pkgerrors.NewValidationError(field, err.Error())
	}
	return nil
}

// load reads the dataset under the caller's lock.
func (uc *UserUsecase) load(ctx context.Context) ([]domain.User, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to load users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to load users", err)
	}
	return users, nil
}

// read runs fn over the dataset under the shared lock.
func (uc *UserUsecase) read(ctx context.Context, fn func(users []domain.User) error) error {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	users, err := uc.load(ctx)
	if err != nil {
		return err
	}
	return fn(users)
}

// ListUsers returns every record in storage order.
func (uc *UserUsecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	var resp ListUsersResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Users = toDTOs(users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GroupByEmailProvider counts users per email provider.
// A stored email without a provider is reported as a validation error.
func (uc *UserUsecase) GroupByEmailProvider(ctx context.Context) (*GroupByEmailProviderResponse, error) {
	var resp GroupByEmailProviderResponse
	err := uc.read(ctx, func(users []domain.User) error {
		counts, err := query.GroupByEmailProvider(users)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedEmail) {
				logger.WithContext(ctx, uc.log).Warn("malformed email in dataset", zap.Error(err))
				return pkgerrors.NewValidationError("email", err.Error())
			}
			return err
		}
		resp.Counts = counts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountInterest counts every occurrence of the interest across all users.
func (uc *UserUsecase) CountInterest(ctx context.Context, in CountInterestRequest) (*CountResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("counting interest", zap.String("interest", in.Interest))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := validateTerm("interest", in.Interest); err != nil {
		log.Warn("invalid interest", zap.String("interest", in.Interest), zap.Error(err))
		return nil, err
	}

	var resp CountResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Count = query.CountInterest(users, in.Interest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DistinctInterests returns every interest once.
func (uc *UserUsecase) DistinctInterests(ctx context.Context) (*DistinctInterestsResponse, error) {
	var resp DistinctInterestsResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Interests = query.DistinctInterests(users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DuplicatedIDs returns the IDs carried by more than one record.
func (uc *UserUsecase) DuplicatedIDs(ctx context.Context) (*IDSetResponse, error) {
	var resp IDSetResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.IDs = query.DuplicatedIDs(users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DistinctIDs returns every ID once.
func (uc *UserUsecase) DistinctIDs(ctx context.Context) (*IDSetResponse, error) {
	var resp IDSetResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.IDs = query.DistinctIDs(users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountByEmailSuffix counts users whose email ends with the suffix.
func (uc *UserUsecase) CountByEmailSuffix(ctx context.Context, in CountByEmailSuffixRequest) (*CountResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("counting by email suffix", zap.String("suffix", in.Suffix))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := validateTerm("suffix", in.Suffix); err != nil {
		log.Warn("invalid suffix", zap.String("suffix", in.Suffix), zap.Error(err))
		return nil, err
	}

	var resp CountResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Count = query.CountByEmailSuffix(users, in.Suffix)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FilterBySuffixAndMinAge returns users matching both the suffix and the minimum age.
func (uc *UserUsecase) FilterBySuffixAndMinAge(ctx context.Context, in FilterBySuffixAndMinAgeRequest) (*UsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("filtering by suffix and age", zap.String("suffix", in.Suffix), zap.Int("min_age", in.MinAge))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := validateTerm("suffix", in.Suffix); err != nil {
		log.Warn("invalid suffix", zap.String("suffix", in.Suffix), zap.Error(err))
		return nil, err
	}

	var resp UsersResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Users = toDTOs(query.FilterBySuffixAndMinAge(users, in.Suffix, in.MinAge))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FirstWithMinAge returns the first user of at least the given age.
// No match is reported through Found, not as an error.
func (uc *UserUsecase) FirstWithMinAge(ctx context.Context, in FirstWithMinAgeRequest) (*FirstWithMinAgeResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	var resp FirstWithMinAgeResponse
	err := uc.read(ctx, func(users []domain.User) error {
		u, ok := query.FirstWithMinAge(users, in.MinAge)
		if ok {
			resp.User = toDTO(u)
		}
		resp.Found = ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("first with min age", zap.Int("min_age", in.MinAge), zap.Bool("found", resp.Found))
	return &resp, nil
}

// TrimAllEmails strips surrounding whitespace from every stored email.
// Storage is rewritten only when at least one email changed.
func (uc *UserUsecase) TrimAllEmails(ctx context.Context) (*TrimAllEmailsResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	uc.mu.Lock()
	defer uc.mu.Unlock()

	users, err := uc.load(ctx)
	if err != nil {
		return nil, err
	}

	before := make([]string, len(users))
	for i, u := range users {
		before[i] = u.Email
	}

	query.TrimAllEmails(users)

	trimmed := 0
	for i, u := range users {
		if u.Email != before[i] {
			trimmed++
		}
	}

	if trimmed > 0 {
		if err := uc.repo.ReplaceAll(ctx, users); err != nil {
			log.Error("failed to store trimmed emails", zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to store trimmed emails", err)
		}
	}

	log.Info("emails trimmed", zap.Int("trimmed", trimmed), zap.Int("users", len(users)))
	return &TrimAllEmailsResponse{Trimmed: trimmed}, nil
}

// FullNames returns "First Last" for every user in storage order.
func (uc *UserUsecase) FullNames(ctx context.Context) (*FullNamesResponse, error) {
	var resp FullNamesResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Names = query.FullNames(users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindByIDs returns the first user for each requested ID, in request order.
// Unknown IDs are skipped.
func (uc *UserUsecase) FindByIDs(ctx context.Context, in FindByIDsRequest) (*UsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	var resp UsersResponse
	err := uc.read(ctx, func(users []domain.User) error {
		resp.Users = toDTOs(query.FindByIDs(users, in.IDs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("find by ids", zap.Int64s("ids", in.IDs), zap.Int("found", len(resp.Users)))
	return &resp, nil
}
