package user

import "context"

// Usecase defines the query operations over the user dataset.
type Usecase interface {
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	GroupByEmailProvider(ctx context.Context) (*GroupByEmailProviderResponse, error)
	CountInterest(ctx context.Context, in CountInterestRequest) (*CountResponse, error)
	DistinctInterests(ctx context.Context) (*DistinctInterestsResponse, error)
	DuplicatedIDs(ctx context.Context) (*IDSetResponse, error)
	DistinctIDs(ctx context.Context) (*IDSetResponse, error)
	CountByEmailSuffix(ctx context.Context, in CountByEmailSuffixRequest) (*CountResponse, error)
	FilterBySuffixAndMinAge(ctx context.Context, in FilterBySuffixAndMinAgeRequest) (*UsersResponse, error)
	FirstWithMinAge(ctx context.Context, in FirstWithMinAgeRequest) (*FirstWithMinAgeResponse, error)
	TrimAllEmails(ctx context.Context) (*TrimAllEmailsResponse, error)
	FullNames(ctx context.Context) (*FullNamesResponse, error)
	FindByIDs(ctx context.Context, in FindByIDsRequest) (*UsersResponse, error)
}
