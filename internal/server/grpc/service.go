package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified name of the token service. Messages are
// protobuf well-known types, so no generated code is needed on either side.
const ServiceName = "moviesauth.v1.TokenService"

const (
	methodCheckToken = "/" + ServiceName + "/CheckToken"
	methodRefresh    = "/" + ServiceName + "/Refresh"
	methodLogout     = "/" + ServiceName + "/Logout"
	methodWhoAmI     = "/" + ServiceName + "/WhoAmI"
)

// TokenServiceServer is implemented by GRPCServer.
type TokenServiceServer interface {
	CheckToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unaryHandler[Req any, Resp any](method string, call func(TokenServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TokenServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TokenServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TokenServiceDesc describes the service for grpc.Server.RegisterService.
var TokenServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckToken", Handler: unaryHandler(methodCheckToken, TokenServiceServer.CheckToken)},
		{MethodName: "Refresh", Handler: unaryHandler(methodRefresh, TokenServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(methodLogout, TokenServiceServer.Logout)},
		{MethodName: "WhoAmI", Handler: unaryHandler(methodWhoAmI, TokenServiceServer.WhoAmI)},
	},
	Metadata: "moviesauth/v1/token.proto",
}

// TokenServiceClient calls a remote TokenService.
type TokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenServiceClient(cc grpc.ClientConnInterface) *TokenServiceClient {
	return &TokenServiceClient{cc: cc}
}

func (c *TokenServiceClient) CheckToken(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodCheckToken, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TokenServiceClient) Refresh(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodRefresh, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TokenServiceClient) Logout(ctx context.Context, token string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, methodLogout, wrapperspb.String(token), new(emptypb.Empty), opts...)
}

// WhoAmI requires the access token in the access_token metadata key.
func (c *TokenServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodWhoAmI, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
