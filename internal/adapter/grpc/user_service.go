package grpc

import (
	"context"
	"math"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/usecase/user"
	pkgerrors "github.com/AmirHosein-Gharaati/learnstreamapi/pkg/errors"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "learnstream.user.v1.UserQueryService"

// UserQueryServiceServer is the server API for the user query service.
// Every message is a google.protobuf.Struct.
type UserQueryServiceServer interface {
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GroupByEmailProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountInterest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DistinctInterests(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DuplicatedIDs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DistinctIDs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountByEmailSuffix(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FilterBySuffixAndMinAge(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FirstWithMinAge(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TrimAllEmails(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FullNames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindByIDs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UserQueryServer implements UserQueryServiceServer on top of the usecase.
type UserQueryServer struct {
	uc  user.Usecase
	log *zap.Logger
}

var _ UserQueryServiceServer = (*UserQueryServer)(nil)

// NewUserQueryServer creates a new gRPC user query server.
func NewUserQueryServer(uc user.Usecase, log *zap.Logger) *UserQueryServer {
	return &UserQueryServer{uc: uc, log: log}
}

// Register attaches the service to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv UserQueryServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ListUsers handles gRPC ListUsers request
func (s *UserQueryServer) ListUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListUsers", err)
	}
	return s.reply(ctx, map[string]any{"users": usersValue(out.Users)})
}

// GroupByEmailProvider handles gRPC GroupByEmailProvider request
func (s *UserQueryServer) GroupByEmailProvider(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.GroupByEmailProvider(ctx)
	if err != nil {
		return nil, s.fail(ctx, "GroupByEmailProvider", err)
	}
	counts := make(map[string]any, len(out.Counts))
	for provider, n := range out.Counts {
		counts[provider] = n
	}
	return s.reply(ctx, map[string]any{"counts": counts})
}

// CountInterest handles gRPC CountInterest request
func (s *UserQueryServer) CountInterest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.CountInterest(ctx, user.CountInterestRequest{Interest: stringField(req, "interest")})
	if err != nil {
		return nil, s.fail(ctx, "CountInterest", err)
	}
	return s.reply(ctx, map[string]any{"count": out.Count})
}

// DistinctInterests handles gRPC DistinctInterests request
func (s *UserQueryServer) DistinctInterests(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.DistinctInterests(ctx)
	if err != nil {
		return nil, s.fail(ctx, "DistinctInterests", err)
	}
	return s.reply(ctx, map[string]any{"interests": stringsValue(out.Interests.Sorted())})
}

// DuplicatedIDs handles gRPC DuplicatedIDs request
func (s *UserQueryServer) DuplicatedIDs(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.DuplicatedIDs(ctx)
	if err != nil {
		return nil, s.fail(ctx, "DuplicatedIDs", err)
	}
	return s.reply(ctx, map[string]any{"ids": idsValue(out.IDs.Sorted())})
}

// DistinctIDs handles gRPC DistinctIDs request
func (s *UserQueryServer) DistinctIDs(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.DistinctIDs(ctx)
	if err != nil {
		return nil, s.fail(ctx, "DistinctIDs", err)
	}
	return s.reply(ctx, map[string]any{"ids": idsValue(out.IDs.Sorted())})
}

// CountByEmailSuffix handles gRPC CountByEmailSuffix request
func (s *UserQueryServer) CountByEmailSuffix(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.CountByEmailSuffix(ctx, user.CountByEmailSuffixRequest{Suffix: stringField(req, "suffix")})
	if err != nil {
		return nil, s.fail(ctx, "CountByEmailSuffix", err)
	}
	return s.reply(ctx, map[string]any{"count": out.Count})
}

// FilterBySuffixAndMinAge handles gRPC FilterBySuffixAndMinAge request
func (s *UserQueryServer) FilterBySuffixAndMinAge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	minAge, err := intField(req, "min_age")
	if err != nil {
		return nil, s.fail(ctx, "FilterBySuffixAndMinAge", err)
	}
	out, err := s.uc.FilterBySuffixAndMinAge(ctx, user.FilterBySuffixAndMinAgeRequest{
		Suffix: stringField(req, "suffix"),
		MinAge: minAge,
	})
	if err != nil {
		return nil, s.fail(ctx, "FilterBySuffixAndMinAge", err)
	}
	return s.reply(ctx, map[string]any{"users": usersValue(out.Users)})
}

// FirstWithMinAge handles gRPC FirstWithMinAge request.
// An absent user is reported as found=false rather than NotFound.
func (s *UserQueryServer) FirstWithMinAge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	minAge, err := intField(req, "min_age")
	if err != nil {
		return nil, s.fail(ctx, "FirstWithMinAge", err)
	}
	out, err := s.uc.FirstWithMinAge(ctx, user.FirstWithMinAgeRequest{MinAge: minAge})
	if err != nil {
		return nil, s.fail(ctx, "FirstWithMinAge", err)
	}
	fields := map[string]any{"found": out.Found}
	if out.Found {
		fields["user"] = userValue(out.User)
	}
	return s.reply(ctx, fields)
}

// TrimAllEmails handles gRPC TrimAllEmails request
func (s *UserQueryServer) TrimAllEmails(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.TrimAllEmails(ctx)
	if err != nil {
		return nil, s.fail(ctx, "TrimAllEmails", err)
	}
	return s.reply(ctx, map[string]any{"trimmed": out.Trimmed})
}

// FullNames handles gRPC FullNames request
func (s *UserQueryServer) FullNames(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.uc.FullNames(ctx)
	if err != nil {
		return nil, s.fail(ctx, "FullNames", err)
	}
	return s.reply(ctx, map[string]any{"names": stringsValue(out.Names)})
}

// FindByIDs handles gRPC FindByIDs request
func (s *UserQueryServer) FindByIDs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ids, err := idsField(req, "ids")
	if err != nil {
		return nil, err
	}
	out, err := s.uc.FindByIDs(ctx, user.FindByIDsRequest{IDs: ids})
	if err != nil {
		return nil, s.fail(ctx, "FindByIDs", err)
	}
	return s.reply(ctx, map[string]any{"users": usersValue(out.Users)})
}

func (s *UserQueryServer) reply(ctx context.Context, fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to encode response", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to encode response", err)
	}
	return out, nil
}

// fail maps err to an application error. Only internal failures are logged.
func (s *UserQueryServer) fail(ctx context.Context, method string, err error) error {
	appErr := pkgerrors.Classify(err)
	if appErr.Kind() == pkgerrors.KindInternal {
		logger.WithContext(ctx, s.log).Error("grpc call failed",
			zap.String("method", method),
			zap.Error(err),
		)
	}
	return appErr
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// wholeNumber converts a Struct number to int64 when it is integral and
// inside the range a float64 represents exactly.
func wholeNumber(v *structpb.Value) (int64, bool) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// intField reads an optional whole number. An absent field is 0.
func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, ok := wholeNumber(v)
	if !ok || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, pkgerrors.NewValidationError(name, "must be a whole number")
	}
	return int(n), nil
}

func idsField(req *structpb.Struct, name string) ([]int64, error) {
	values := req.GetFields()[name].GetListValue().GetValues()
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		n, ok := wholeNumber(v)
		if !ok {
			return nil, pkgerrors.NewValidationError(name, "must be a list of integers")
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func userValue(u user.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"age":        u.Age,
		"interests":  stringsValue(u.Interests),
	}
}

func usersValue(users []user.User) []any {
	out := make([]any, len(users))
	for i, u := range users {
		out[i] = userValue(u)
	}
	return out
}

func stringsValue(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func idsValue(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
