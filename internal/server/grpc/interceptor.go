package grpc

import (
	"context"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityKey ctxKey = "identity"

// authenticated lists the methods that need an access token in metadata.
var authenticated = map[string]bool{
	methodWhoAmI: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if authenticated[info.FullMethod] {
		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
				accessToken = values[0]
			}
		}
		if accessToken == "" {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		id, err := s.users.ValidateAccess(ctx, accessToken)
		if err != nil {
			return nil, toStatus(err)
		}
		ctx = context.WithValue(ctx, identityKey, id)
	}

	return handler(ctx, req)
}

func identityFrom(ctx context.Context) (*services.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*services.Identity)
	return id, ok
}
