package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type unaryCall func(UserQueryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(UserQueryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(UserQueryServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes UserQueryService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListUsers", UserQueryServiceServer.ListUsers),
		unaryMethod("GroupByEmailProvider", UserQueryServiceServer.GroupByEmailProvider),
		unaryMethod("CountInterest", UserQueryServiceServer.CountInterest),
		unaryMethod("DistinctInterests", UserQueryServiceServer.DistinctInterests),
		unaryMethod("DuplicatedIDs", UserQueryServiceServer.DuplicatedIDs),
		unaryMethod("DistinctIDs", UserQueryServiceServer.DistinctIDs),
		unaryMethod("CountByEmailSuffix", UserQueryServiceServer.CountByEmailSuffix),
		unaryMethod("FilterBySuffixAndMinAge", UserQueryServiceServer.FilterBySuffixAndMinAge),
		unaryMethod("FirstWithMinAge", UserQueryServiceServer.FirstWithMinAge),
		unaryMethod("TrimAllEmails", UserQueryServiceServer.TrimAllEmails),
		unaryMethod("FullNames", UserQueryServiceServer.FullNames),
		unaryMethod("FindByIDs", UserQueryServiceServer.FindByIDs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "learnstream/user/v1/user_query.proto",
}

// FullMethod returns the full RPC path of a method on this service.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
