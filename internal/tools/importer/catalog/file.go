package catalogimporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
)

// File is the YAML catalog document.
type File struct {
	Sites []SiteEntry `yaml:"sites"`
}

// SiteEntry describes one site and the ad units it owns.
type SiteEntry struct {
	ID      string        `yaml:"id"`
	Domain  string        `yaml:"domain"`
	Name    string        `yaml:"name"`
	AdUnits []AdUnitEntry `yaml:"ad_units"`
}

// AdUnitEntry describes one network ad unit and where it is shown.
type AdUnitEntry struct {
	ID        string          `yaml:"id"`
	Positions []PositionEntry `yaml:"positions"`
}

// PositionEntry places an ad unit in a slot at one breakpoint. Sizes are
// written as "WIDTHxHEIGHT".
type PositionEntry struct {
	Slot       string   `yaml:"slot"`
	Breakpoint string   `yaml:"breakpoint"`
	Sizes      []string `yaml:"sizes"`
}

// Summary counts the records a catalog file describes.
type Summary struct {
	Sites     int
	AdUnits   int
	Positions int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d site(s), %d ad unit(s), %d position(s)", s.Sites, s.AdUnits, s.Positions)
}

// ReadFile decodes the catalog file at path.
func ReadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a catalog document. Unknown keys are rejected so typos do not
// silently drop records.
func Decode(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, errors.New("catalog file is empty")
		}
		return File{}, fmt.Errorf("decode catalog: %w", err)
	}
	return file, nil
}

// Validate checks the whole document before anything is written.
func (f File) Validate() (Summary, error) {
	var summary Summary
	siteIDs := make(map[string]struct{})
	domains := make(map[string]string)
	unitIDs := make(map[string]string)
	for i, site := range f.Sites {
		siteID := strings.TrimSpace(site.ID)
		if siteID == "" {
			return Summary{}, fmt.Errorf("sites[%d]: id is required", i)
		}
		if _, ok := siteIDs[siteID]; ok {
			return Summary{}, fmt.Errorf("site %s: duplicate id", siteID)
		}
		siteIDs[siteID] = struct{}{}
		domain := strings.ToLower(strings.TrimSpace(site.Domain))
		if domain == "" {
			return Summary{}, fmt.Errorf("site %s: domain is required", siteID)
		}
		if other, ok := domains[domain]; ok {
			return Summary{}, fmt.Errorf("site %s: domain %s already used by site %s", siteID, domain, other)
		}
		domains[domain] = siteID
		summary.Sites++

		for j, unit := range site.AdUnits {
			unitID := strings.TrimSpace(unit.ID)
			if unitID == "" {
				return Summary{}, fmt.Errorf("site %s: ad_units[%d]: id is required", siteID, j)
			}
			if owner, ok := unitIDs[unitID]; ok {
				return Summary{}, fmt.Errorf("site %s: ad unit %s already belongs to site %s", siteID, unitID, owner)
			}
			unitIDs[unitID] = siteID
			summary.AdUnits++

			for k, entry := range unit.Positions {
				if _, err := entry.position(unitID); err != nil {
					return Summary{}, fmt.Errorf("ad unit %s: positions[%d]: %w", unitID, k, err)
				}
				summary.Positions++
			}
		}
	}
	return summary, nil
}

// Apply validates f and writes it to store. Existing records are updated in
// place.
func (f File) Apply(ctx context.Context, store catalog.Store) (Summary, error) {
	summary, err := f.Validate()
	if err != nil {
		return Summary{}, err
	}
	for _, site := range f.Sites {
		siteID := strings.TrimSpace(site.ID)
		if err := store.PutSite(ctx, catalog.Site{
			ID:     siteID,
			Domain: strings.ToLower(strings.TrimSpace(site.Domain)),
			Name:   strings.TrimSpace(site.Name),
		}); err != nil {
			return Summary{}, fmt.Errorf("put site %s: %w", siteID, err)
		}
		for _, unit := range site.AdUnits {
			unitID := strings.TrimSpace(unit.ID)
			if err := store.PutAdUnit(ctx, catalog.AdUnit{UnitID: unitID, SiteID: siteID}); err != nil {
				return Summary{}, fmt.Errorf("put ad unit %s: %w", unitID, err)
			}
			for _, entry := range unit.Positions {
				position, err := entry.position(unitID)
				if err != nil {
					return Summary{}, err
				}
				if err := store.PutPosition(ctx, position); err != nil {
					return Summary{}, fmt.Errorf("put position %s/%s for %s: %w", position.Slot, position.Breakpoint, unitID, err)
				}
			}
		}
	}
	return summary, nil
}

func (p PositionEntry) position(unitID string) (catalog.Position, error) {
	position := catalog.Position{
		Slot:       strings.TrimSpace(p.Slot),
		Breakpoint: strings.TrimSpace(p.Breakpoint),
		UnitID:     unitID,
	}
	for _, raw := range p.Sizes {
		size, err := catalog.ParseSize(raw)
		if err != nil {
			return catalog.Position{}, err
		}
		position.Sizes = append(position.Sizes, size)
	}
	if err := position.Validate(); err != nil {
		return catalog.Position{}, err
	}
	return position, nil
}
