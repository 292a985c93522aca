// Package catalog defines the ad catalog: the sites, ad units, sizes and
// positions that placeholders on a page are resolved against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

var (
	// ErrNotFound indicates a requested catalog record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Site scopes ad units. Domain is the host name the site is served from.
type Site struct {
	ID     string
	Domain string
	Name   string
}

// AdUnit is a network ad unit owned by one site.
type AdUnit struct {
	UnitID string
	SiteID string
}

// Size is an allowed creative size, unique by (width, height).
type Size struct {
	Width  int
	Height int
}

// String renders the size the way catalog administrators read it.
func (s Size) String() string {
	return fmt.Sprintf("%dpx x %dpx", s.Width, s.Height)
}

// Validate reports whether both dimensions are positive.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return apperrors.WithMetadata(apperrors.CodeCatalogInvalidSize,
			fmt.Sprintf("size %dx%d must have positive dimensions", s.Width, s.Height),
			map[string]string{"width": strconv.Itoa(s.Width), "height": strconv.Itoa(s.Height)})
	}
	return nil
}

// ParseSize parses a "WxH" size such as "300x250".
func ParseSize(value string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return Size{}, apperrors.New(apperrors.CodeCatalogInvalidSize, fmt.Sprintf("size %q must look like WIDTHxHEIGHT", value))
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Size{}, apperrors.Wrap(apperrors.CodeCatalogInvalidSize, fmt.Sprintf("size %q width", value), err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Size{}, apperrors.Wrap(apperrors.CodeCatalogInvalidSize, fmt.Sprintf("size %q height", value), err)
	}
	size := Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return Size{}, err
	}
	return size, nil
}

// Position selects the ad unit displayed in a slot at one breakpoint.
type Position struct {
	Slot       string
	Breakpoint string
	UnitID     string
	Sizes      []Size
}

// AdUnitID returns the network-qualified ad unit id, "{network}/{unit}".
func (p Position) AdUnitID(networkID string) string {
	return networkID + "/" + p.UnitID
}

// Validate checks the fields a position needs before it can be stored.
func (p Position) Validate() error {
	switch {
	case strings.TrimSpace(p.Slot) == "":
		return apperrors.New(apperrors.CodeCatalogInvalidPosition, "position slot is required")
	case strings.TrimSpace(p.Breakpoint) == "":
		return apperrors.New(apperrors.CodeCatalogInvalidPosition, "position breakpoint is required")
	case strings.TrimSpace(p.UnitID) == "":
		return apperrors.New(apperrors.CodeCatalogInvalidPosition, "position ad unit is required")
	}
	for _, size := range p.Sizes {
		if err := size.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds the positions configured for a site. Results keep the
// catalog's own order and only include positions whose slot and breakpoint
// are both in the requested sets.
type Lookup interface {
	FindPositions(ctx context.Context, siteID string, slots, breakpoints []string) ([]Position, error)
}

// Store is the administrative side of the catalog used by importers and by
// the web service to map hosts to sites.
type Store interface {
	Lookup
	PutSite(ctx context.Context, site Site) error
	PutAdUnit(ctx context.Context, unit AdUnit) error
	PutPosition(ctx context.Context, position Position) error
	SiteIDForDomain(ctx context.Context, domain string) (string, error)
}
