package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/adapter/memory"
	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
	pkgerrors "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/errors"
	"github.com/AmirHosein-Gharaati/learnstreamapi/seeds"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Append(ctx context.Context, users ...domain.User) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func (m *MockRepository) ReplaceAll(ctx context.Context, users []domain.User) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func setupTestUsecase(t *testing.T) (*UserUsecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	return uc, mockRepo
}

func setupFixtureUsecase(t *testing.T) (*UserUsecase, *memory.UserRepo) {
	repo := memory.NewUserRepo(seeds.Users()...)
	uc := New(repo, zaptest.NewLogger(t))
	return uc, repo
}

// ==================== FIXTURE PROPERTIES ====================

func TestGroupByEmailProvider(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.GroupByEmailProvider(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Counts["gmail.com"])
	assert.Len(t, resp.Counts, 4)
}

func TestGroupByEmailProvider_MalformedEmail(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	users := seeds.Users()
	users[1].Email = "rezajsh"
	mockRepo.On("List", ctx).Return(users, nil)

	resp, err := uc.GroupByEmailProvider(ctx)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "rezajsh")
}

func TestCountInterest(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.CountInterest(context.Background(), CountInterestRequest{Interest: "computer"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Count)
}

func TestCountInterest_ValidationError(t *testing.T) {
	uc, _ := setupTestUsecase(t)
	ctx := context.Background()

	resp, err := uc.CountInterest(ctx, CountInterestRequest{Interest: ""})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Interest is required")

	resp, err = uc.CountInterest(ctx, CountInterestRequest{Interest: "computer; --"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "interest")
}

func TestDistinctInterests(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.DistinctInterests(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, resp.Interests.Len())
}

func TestDuplicatedIDs(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.DuplicatedIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, resp.IDs.Sorted())
}

func TestDistinctIDs_Idempotent(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)
	ctx := context.Background()

	first, err := uc.DistinctIDs(ctx)
	require.NoError(t, err)
	second, err := uc.DistinctIDs(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 5}, first.IDs.Sorted())
	assert.True(t, first.IDs.Equal(second.IDs))
}

func TestCountByEmailSuffix(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.CountByEmailSuffix(context.Background(), CountByEmailSuffixRequest{Suffix: "yahoo.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Count)
}

func TestCountByEmailSuffix_ValidationError(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.CountByEmailSuffix(context.Background(), CountByEmailSuffixRequest{Suffix: strings.Repeat("a", 101)})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "too long")
}

func TestFilterBySuffixAndMinAge(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.FilterBySuffixAndMinAge(context.Background(), FilterBySuffixAndMinAgeRequest{Suffix: "gmail.com", MinAge: 25})

	require.NoError(t, err)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "Babak", resp.Users[0].FirstName)
	assert.Equal(t, "Amir", resp.Users[1].FirstName)
}

func TestFilterBySuffixAndMinAge_ValidationError(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.FilterBySuffixAndMinAge(context.Background(), FilterBySuffixAndMinAgeRequest{Suffix: "", MinAge: -1})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Suffix is required")
	assert.Contains(t, err.Error(), "MinAge must be at least 0")
}

func TestFirstWithMinAge(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.FirstWithMinAge(context.Background(), FirstWithMinAgeRequest{MinAge: 25})

	require.NoError(t, err)
	require.True(t, resp.Found)
	assert.Equal(t, 26, resp.User.Age)
	assert.Equal(t, "Mohammad", resp.User.FirstName)
}

func TestFirstWithMinAge_Absent(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.FirstWithMinAge(context.Background(), FirstWithMinAgeRequest{MinAge: 120})

	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Equal(t, User{}, resp.User)
}

func TestFirstWithMinAge_ValidationError(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.FirstWithMinAge(context.Background(), FirstWithMinAgeRequest{MinAge: 151})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "MinAge must be at most 150")
}

func TestFullNames(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.FullNames(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Names, 6)
	assert.Equal(t, "Amirhosein Gharaati", resp.Names[0])
}

func TestFindByIDs(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.FindByIDs(context.Background(), FindByIDsRequest{IDs: []int64{1, 2, 7}})

	require.NoError(t, err)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, int64(1), resp.Users[0].ID)
	assert.Equal(t, int64(2), resp.Users[1].ID)
}

func TestFindByIDs_TooMany(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	resp, err := uc.FindByIDs(context.Background(), FindByIDsRequest{IDs: make([]int64, 101)})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "IDs must be at most 100")
}

func TestListUsers(t *testing.T) {
	uc, _ := setupFixtureUsecase(t)

	resp, err := uc.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Users, 6)
	assert.Equal(t, int64(2), resp.Users[3].ID)
	assert.Empty(t, resp.Users[5].Interests)
}

// ==================== TRIM ====================

func TestTrimAllEmails(t *testing.T) {
	users := seeds.Users()
	users[0].Email = "  amirgh1380@gmail.com"
	users[4].Email = "amirtvkli@gmail.com \n"
	repo := memory.NewUserRepo(users...)
	uc := New(repo, zaptest.NewLogger(t))
	ctx := context.Background()

	resp, err := uc.TrimAllEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Trimmed)

	stored, err := repo.List(ctx)
	require.NoError(t, err)
	for _, u := range stored {
		assert.Equal(t, strings.TrimSpace(u.Email), u.Email)
	}

	again, err := uc.TrimAllEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Trimmed)

	after, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, after)
}

func TestTrimAllEmails_NothingToTrimSkipsWrite(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(seeds.Users(), nil)

	resp, err := uc.TrimAllEmails(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Trimmed)
	mockRepo.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestTrimAllEmails_WriteError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	users := seeds.Users()
	users[2].Email = " babakahmadi@gmail.com"
	mockRepo.On("List", ctx).Return(users, nil)
	mockRepo.On("ReplaceAll", ctx, mock.MatchedBy(func(us []domain.User) bool {
		return us[2].Email == "babakahmadi@gmail.com"
	})).Return(errors.New("read-only database"))

	resp, err := uc.TrimAllEmails(ctx)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "failed to store trimmed emails")
	mockRepo.AssertExpectations(t)
}

func TestTrimAllEmails_ConcurrentReadsSeeTrimmedOrOriginal(t *testing.T) {
	users := seeds.Users()
	for i := range users {
		users[i].Email = " " + users[i].Email + " "
	}
	uc := New(memory.NewUserRepo(users...), zaptest.NewLogger(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = uc.TrimAllEmails(ctx)
		}()
		go func() {
			defer wg.Done()
			resp, err := uc.ListUsers(ctx)
			if !assert.NoError(t, err) {
				return
			}
			trimmed := resp.Users[0].Email == strings.TrimSpace(resp.Users[0].Email)
			for _, u := range resp.Users {
				assert.Equal(t, trimmed, u.Email == strings.TrimSpace(u.Email))
			}
		}()
	}
	wg.Wait()

	counts, err := uc.CountByEmailSuffix(ctx, CountByEmailSuffixRequest{Suffix: "gmail.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Count)
}

// ==================== REPOSITORY ERRORS ====================

func TestRepositoryError_IsInternal(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("connection refused"))

	resp, err := uc.DistinctIDs(ctx)

	require.Error(t, err)
	assert.Nil(t, resp)
	var internal *pkgerrors.InternalError
	require.ErrorAs(t, err, &internal)
	assert.Equal(t, "failed to load users", internal.Message)
}

// ==================== VALIDATION HELPER TESTS ====================

func TestFormatValidationError(t *testing.T) {
	validate := validator.New()

	type TestStruct struct {
		Suffix string `validate:"required"`
		MinAge int    `validate:"gte=0"`
	}

	formatted := formatValidationError(validate.Struct(&TestStruct{MinAge: -5}))

	assert.True(t, pkgerrors.IsValidation(formatted))
	assert.Contains(t, formatted.Error(), "validation failed")
	assert.Contains(t, formatted.Error(), "Suffix is required")
	assert.Contains(t, formatted.Error(), "MinAge must be at least 0")
}

func TestFormatValidationError_NonValidationError(t *testing.T) {
	originalErr := errors.New("some other error")
	formatted := formatValidationError(originalErr)

	assert.Equal(t, originalErr, formatted)
}
