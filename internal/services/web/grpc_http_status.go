package web

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

// renderErrorStatus maps a page render failure to an HTTP status code.
func renderErrorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return grpcErrorHTTPStatus(apperrors.AsGRPCStatus(err, ""), http.StatusInternalServerError)
}

// grpcErrorHTTPStatus maps gRPC status errors to HTTP status codes.
func grpcErrorHTTPStatus(err error, fallback int) int {
	if err == nil {
		return fallback
	}
	st, ok := status.FromError(err)
	if !ok {
		return fallback
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}
