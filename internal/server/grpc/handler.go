package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrBackendUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func identityStruct(id *services.Identity) (*structpb.Struct, error) {
	roles := make([]any, 0, len(id.Roles))
	for _, r := range id.Roles {
		roles = append(roles, r)
	}
	return structpb.NewStruct(map[string]any{
		"user":         id.Login,
		"expire":       id.Expire,
		"id":           id.ID,
		"email":        id.Email,
		"first_name":   id.FirstName,
		"last_name":    id.LastName,
		"is_superuser": id.IsSuperuser,
		"roles":        roles,
		"jti":          id.JTI,
	})
}

func (s *GRPCServer) CheckToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := s.users.ValidateAccess(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return identityStruct(id)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	pair, err := s.users.Refresh(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (s *GRPCServer) Logout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.users.Logout(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Logged out over gRPC")
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, ok := identityFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return identityStruct(id)
}
