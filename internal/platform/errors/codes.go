// Package errors provides structured domain errors for adgeletti.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Placeholder errors
	CodePlaceholderBreakpointsMissing Code = "PLACEHOLDER_BREAKPOINTS_MISSING"

	// Catalog errors
	CodeCatalogUnavailable     Code = "CATALOG_UNAVAILABLE"
	CodeCatalogSiteRequired    Code = "CATALOG_SITE_REQUIRED"
	CodeCatalogInvalidSize     Code = "CATALOG_INVALID_SIZE"
	CodeCatalogInvalidPosition Code = "CATALOG_INVALID_POSITION"
	CodeCatalogAlreadyExists   Code = "CATALOG_ALREADY_EXISTS"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - template authoring bugs and bad catalog input
	case CodePlaceholderBreakpointsMissing,
		CodeCatalogSiteRequired,
		CodeCatalogInvalidSize,
		CodeCatalogInvalidPosition:
		return codes.InvalidArgument

	// Unavailable - the catalog backing store could not answer
	case CodeCatalogUnavailable:
		return codes.Unavailable

	case CodeNotFound:
		return codes.NotFound

	case CodeCatalogAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
