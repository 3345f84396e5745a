package user

import (
	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/query"
)

// CountInterestRequest represents the request payload for counting one interest.
type CountInterestRequest struct {
	Interest string `validate:"required"`
}

// CountByEmailSuffixRequest represents the request payload for counting users by email suffix.
type CountByEmailSuffixRequest struct {
	Suffix string `validate:"required"`
}

// FilterBySuffixAndMinAgeRequest represents the request payload for the suffix and age filter.
// MinAge is inclusive.
type FilterBySuffixAndMinAgeRequest struct {
	Suffix string `validate:"required"`
	MinAge int    `validate:"gte=0,lte=150"`
}

// FirstWithMinAgeRequest represents the request payload for finding the first user of a minimum age.
type FirstWithMinAgeRequest struct {
	MinAge int `validate:"gte=0,lte=150"`
}

// FindByIDsRequest represents the request payload for looking up users by ID.
// IDs absent from the dataset are allowed and skipped.
type FindByIDsRequest struct {
	IDs []int64 `validate:"max=100"`
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Age       int
	Interests []string
}

// ListUsersResponse represents the whole dataset in storage order.
type ListUsersResponse struct {
	Users []User
}

// UsersResponse represents an ordered list of matching users.
type UsersResponse struct {
	Users []User
}

// GroupByEmailProviderResponse maps each email provider to its user count.
type GroupByEmailProviderResponse struct {
	Counts map[string]int64
}

// CountResponse represents a single count result.
type CountResponse struct {
	Count int64
}

// DistinctInterestsResponse represents the set of all interests.
type DistinctInterestsResponse struct {
	Interests query.Set[string]
}

// IDSetResponse represents a set of user IDs.
type IDSetResponse struct {
	IDs query.Set[int64]
}

// FirstWithMinAgeResponse carries the first matching user, if any.
type FirstWithMinAgeResponse struct {
	User  User
	Found bool
}

// TrimAllEmailsResponse reports how many emails changed.
type TrimAllEmailsResponse struct {
	Trimmed int
}

// FullNamesResponse represents full names in dataset order.
type FullNamesResponse struct {
	Names []string
}

func toDTO(u domain.User) User {
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Interests: u.Interests,
	}
}

func toDTOs(users []domain.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = toDTO(u)
	}
	return out
}
