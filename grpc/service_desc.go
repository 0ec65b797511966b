package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service is declared by hand over well-known types,
// so frontends can call it without any generated stubs.
const (
	FetchServiceName  = "fakefetch.v1.FetchService"
	FetchFullMethod   = "/" + FetchServiceName + "/Fetch"
	HistoryFullMethod = "/" + FetchServiceName + "/History"
	StatsFullMethod   = "/" + FetchServiceName + "/Stats"
	GetFullMethod     = "/" + FetchServiceName + "/Get"
	fetchMethodName   = "Fetch"
	historyMethodName = "History"
	statsMethodName   = "Stats"
	getMethodName     = "Get"
)

type FetchServiceServer interface {
	Fetch(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error)
	History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var FetchServiceDesc = grpc.ServiceDesc{
	ServiceName: FetchServiceName,
	HandlerType: (*FetchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: fetchMethodName, Handler: fetchHandler},
		{MethodName: historyMethodName, Handler: historyHandler},
		{MethodName: statsMethodName, Handler: statsHandler},
		{MethodName: getMethodName, Handler: getHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterFetchServiceServer(s grpc.ServiceRegistrar, srv FetchServiceServer) {
	s.RegisterService(&FetchServiceDesc, srv)
}

func fetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FetchServiceServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FetchFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FetchServiceServer).Fetch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FetchServiceServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FetchServiceServer).History(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FetchServiceServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: StatsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FetchServiceServer).Stats(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FetchServiceServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FetchServiceServer).Get(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
