package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

// Memory is an in-process Store. Positions are returned in insertion order.
type Memory struct {
	mu        sync.RWMutex
	sites     map[string]Site
	units     map[string]AdUnit
	positions []Position
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		sites: map[string]Site{},
		units: map[string]AdUnit{},
	}
}

// PutSite inserts or replaces a site.
func (m *Memory) PutSite(ctx context.Context, site Site) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(site.ID) == "" {
		return apperrors.New(apperrors.CodeCatalogSiteRequired, "site id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[site.ID] = site
	return nil
}

// PutAdUnit inserts or replaces an ad unit. The owning site must exist.
func (m *Memory) PutAdUnit(ctx context.Context, unit AdUnit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(unit.UnitID) == "" {
		return apperrors.New(apperrors.CodeCatalogInvalidPosition, "ad unit id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[unit.SiteID]; !ok {
		return ErrNotFound
	}
	m.units[unit.UnitID] = unit
	return nil
}

// PutPosition inserts a position, or replaces the sizes of an existing one
// with the same slot, breakpoint and ad unit.
func (m *Memory) PutPosition(ctx context.Context, position Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := position.Validate(); err != nil {
		return err
	}
	position.Sizes = normalizeSizes(position.Sizes)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[position.UnitID]; !ok {
		return ErrNotFound
	}
	for i, existing := range m.positions {
		if existing.Slot == position.Slot && existing.Breakpoint == position.Breakpoint && existing.UnitID == position.UnitID {
			m.positions[i].Sizes = position.Sizes
			return nil
		}
	}
	m.positions = append(m.positions, position)
	return nil
}

// SiteIDForDomain returns the id of the site served from domain.
func (m *Memory) SiteIDForDomain(ctx context.Context, domain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, site := range m.sites {
		if strings.ToLower(site.Domain) == domain {
			return site.ID, nil
		}
	}
	return "", ErrNotFound
}

// FindPositions implements Lookup.
func (m *Memory) FindPositions(ctx context.Context, siteID string, slots, breakpoints []string) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(siteID) == "" {
		return nil, apperrors.New(apperrors.CodeCatalogSiteRequired, "site id is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Position
	for _, position := range m.positions {
		if m.units[position.UnitID].SiteID != siteID {
			continue
		}
		if !slices.Contains(slots, position.Slot) || !slices.Contains(breakpoints, position.Breakpoint) {
			continue
		}
		position.Sizes = slices.Clone(position.Sizes)
		out = append(out, position)
	}
	return out, nil
}

// normalizeSizes sorts sizes by width then height and drops duplicates,
// matching the order the SQLite store reads them back in.
func normalizeSizes(sizes []Size) []Size {
	out := slices.Clone(sizes)
	slices.SortFunc(out, func(a, b Size) int {
		if a.Width != b.Width {
			return a.Width - b.Width
		}
		return a.Height - b.Height
	})
	return slices.Compact(out)
}

var _ Store = (*Memory)(nil)
