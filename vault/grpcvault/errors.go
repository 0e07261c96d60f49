package grpcvault

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmaynor/WraithSpec/vault"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return vault.ErrNotFound
	case codes.InvalidArgument:
		return vault.ErrInvalidRef
	case codes.PermissionDenied:
		return vault.ErrScopeDenied
	default:
		// Best-effort: if the server sent a known vault error message, preserve it.
		switch st.Message() {
		case vault.ErrNotFound.Error():
			return vault.ErrNotFound
		case vault.ErrInvalidRef.Error():
			return vault.ErrInvalidRef
		case vault.ErrScopeDenied.Error():
			return vault.ErrScopeDenied
		default:
			return err
		}
	}
}
