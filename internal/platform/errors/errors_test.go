package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("render: %w", Wrap(CodeCatalogUnavailable, "find positions", stderrors.New("disk I/O error")))

	if !stderrors.Is(err, New(CodeCatalogUnavailable, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected different code not to match")
	}
	if got := GetCode(err); got != CodeCatalogUnavailable {
		t.Fatalf("code = %s, want %s", got, CodeCatalogUnavailable)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeCatalogUnavailable, "find positions", stderrors.New("database is locked"))
	if got := err.Error(); got != "find positions: database is locked" {
		t.Fatalf("message = %q", got)
	}
	if got := New(CodeNotFound, "site not found").Error(); got != "site not found" {
		t.Fatalf("message = %q", got)
	}
}

func TestCodeGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodePlaceholderBreakpointsMissing, codes.InvalidArgument},
		{CodeCatalogSiteRequired, codes.InvalidArgument},
		{CodeCatalogInvalidSize, codes.InvalidArgument},
		{CodeCatalogInvalidPosition, codes.InvalidArgument},
		{CodeCatalogUnavailable, codes.Unavailable},
		{CodeNotFound, codes.NotFound},
		{CodeCatalogAlreadyExists, codes.AlreadyExists},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Errorf("%s: grpc code = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	err := WithMetadata(CodePlaceholderBreakpointsMissing, "ad requires a breakpoint", map[string]string{"slot": "leaderboard"})

	st, ok := status.FromError(err.ToGRPCStatus("en-US", "Ad placeholder is missing a breakpoint"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", st.Code(), codes.InvalidArgument)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.GetReason() != string(CodePlaceholderBreakpointsMissing) || info.GetDomain() != Domain {
		t.Fatalf("error info = %+v", info)
	}
	if info.GetMetadata()["slot"] != "leaderboard" {
		t.Fatalf("metadata = %v", info.GetMetadata())
	}
	if localized == nil || localized.GetLocale() != "en-US" {
		t.Fatalf("localized message = %+v", localized)
	}
}

func TestAsGRPCStatus(t *testing.T) {
	if AsGRPCStatus(nil, "en-US") != nil {
		t.Fatal("expected nil for nil error")
	}

	wrapped := fmt.Errorf("render: %w", New(CodeCatalogUnavailable, "catalog down"))
	if got := status.Code(AsGRPCStatus(wrapped, "en-US")); got != codes.Unavailable {
		t.Fatalf("domain code = %v, want %v", got, codes.Unavailable)
	}

	already := status.Error(codes.NotFound, "missing")
	if got := status.Code(AsGRPCStatus(already, "en-US")); got != codes.NotFound {
		t.Fatalf("status passthrough = %v, want %v", got, codes.NotFound)
	}

	if got := status.Code(AsGRPCStatus(stderrors.New("boom"), "en-US")); got != codes.Internal {
		t.Fatalf("plain error = %v, want %v", got, codes.Internal)
	}
}
