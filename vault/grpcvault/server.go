package grpcvault

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmaynor/WraithSpec/vault"
)

// Server exposes a vault.Vault over the ProfileVault gRPC service.
type Server struct {
	UnimplementedProfileVaultServer
	Vault vault.Vault
}

func (s *Server) Lookup(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Vault == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing vault")
	}
	id, version, err := splitKey(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	b, err := s.Vault.Lookup(ctx, id, version)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Vault == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing vault")
	}
	id, version, err := splitKey(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(s.Vault.Has(ctx, id, version)), nil
}

func splitKey(key string) (id, version string, err error) {
	id, version, ok := strings.Cut(key, "@")
	if !ok || !vault.ValidRef(id, version) {
		return "", "", vault.ErrInvalidRef
	}
	return id, version, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == vault.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case err == vault.ErrInvalidRef:
		return status.Error(codes.InvalidArgument, err.Error())
	case err == vault.ErrScopeDenied:
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
