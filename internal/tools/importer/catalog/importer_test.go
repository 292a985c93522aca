package catalogimporter

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	catalogsqlite "github.com/louisbranch/adgeletti/internal/ads/catalog/sqlite"
	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

func TestParseConfig(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-file", "catalog.yaml", "-db-path", "out.db", "-dry-run"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{File: "catalog.yaml", DBPath: "out.db", DryRun: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-file", "catalog.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "catalog.db") {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.DryRun {
		t.Fatal("expected dry run off by default")
	}
}

func TestParseConfigRequiresFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunDryRunValidatesWithoutWriting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	var out bytes.Buffer
	err := Run(context.Background(), Config{File: filepath.Join("testdata", "catalog.yaml"), DBPath: dbPath, DryRun: true}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := out.String(), "validated 2 site(s), 3 ad unit(s), 4 position(s)\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if _, err := os.Stat(dbPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created database: %v", err)
	}
}

func TestRunImportsIntoSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	var out bytes.Buffer
	cfg := Config{File: filepath.Join("testdata", "catalog.yaml"), DBPath: dbPath}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "imported 2 site(s), 3 ad unit(s), 4 position(s) into ") {
		t.Fatalf("output = %q", out.String())
	}

	// A second import updates in place.
	if err := Run(context.Background(), cfg, io.Discard); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	store, err := catalogsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	siteID, err := store.SiteIDForDomain(ctx, "news.example.com")
	if err != nil {
		t.Fatalf("site for domain: %v", err)
	}
	if siteID != "news" {
		t.Fatalf("site id = %q, want news", siteID)
	}

	got, err := store.FindPositions(ctx, "news", []string{"leaderboard", "sidebar"}, []string{"desktop", "tablet"})
	if err != nil {
		t.Fatalf("find positions: %v", err)
	}
	want := []catalog.Position{
		{Slot: "leaderboard", Breakpoint: "desktop", UnitID: "NEWS_TOP", Sizes: []catalog.Size{{Width: 728, Height: 90}, {Width: 970, Height: 90}}},
		{Slot: "leaderboard", Breakpoint: "tablet", UnitID: "NEWS_TOP", Sizes: []catalog.Size{{Width: 728, Height: 90}}},
		{Slot: "sidebar", Breakpoint: "desktop", UnitID: "NEWS_SIDE", Sizes: []catalog.Size{{Width: 300, Height: 250}, {Width: 300, Height: 600}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMissingFile(t *testing.T) {
	err := Run(context.Background(), Config{File: filepath.Join(t.TempDir(), "missing.yaml"), DryRun: true}, io.Discard)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("sites:\n  - id: news\n    domian: news.example.com\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeRejectsEmptyDocument(t *testing.T) {
	if _, err := Decode(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code apperrors.Code
	}{
		{
			name: "missing site id",
			doc:  "sites:\n  - domain: a.example\n",
		},
		{
			name: "missing domain",
			doc:  "sites:\n  - id: a\n",
		},
		{
			name: "duplicate domain",
			doc:  "sites:\n  - id: a\n    domain: a.example\n  - id: b\n    domain: A.example\n",
		},
		{
			name: "unit owned twice",
			doc: "sites:\n" +
				"  - id: a\n    domain: a.example\n    ad_units:\n      - id: U\n" +
				"  - id: b\n    domain: b.example\n    ad_units:\n      - id: U\n",
		},
		{
			name: "bad size",
			doc:  "sites:\n  - id: a\n    domain: a.example\n    ad_units:\n      - id: U\n        positions:\n          - slot: s\n            breakpoint: b\n            sizes: [\"300by250\"]\n",
			code: apperrors.CodeCatalogInvalidSize,
		},
		{
			name: "zero size",
			doc:  "sites:\n  - id: a\n    domain: a.example\n    ad_units:\n      - id: U\n        positions:\n          - slot: s\n            breakpoint: b\n            sizes: [\"0x250\"]\n",
			code: apperrors.CodeCatalogInvalidSize,
		},
		{
			name: "missing breakpoint",
			doc:  "sites:\n  - id: a\n    domain: a.example\n    ad_units:\n      - id: U\n        positions:\n          - slot: s\n",
			code: apperrors.CodeCatalogInvalidPosition,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			file, err := Decode(strings.NewReader(tc.doc))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			_, err = file.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tc.code != "" && apperrors.GetCode(err) != tc.code {
				t.Fatalf("code = %s, want %s (%v)", apperrors.GetCode(err), tc.code, err)
			}
		})
	}
}

func TestApplyWritesNothingOnInvalidFile(t *testing.T) {
	file, err := Decode(strings.NewReader("sites:\n  - id: a\n    domain: a.example\n  - id: b\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	store := catalog.NewMemory()
	if _, err := file.Apply(context.Background(), store); err == nil {
		t.Fatal("expected error")
	}
	if _, err := store.SiteIDForDomain(context.Background(), "a.example"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected site a to be absent, got %v", err)
	}
}

func TestApplyIntoMemory(t *testing.T) {
	file, err := ReadFile(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	store := catalog.NewMemory()
	summary, err := file.Apply(context.Background(), store)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(Summary{Sites: 2, AdUnits: 3, Positions: 4}, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	got, err := store.FindPositions(context.Background(), "sports", []string{"leaderboard"}, []string{"desktop"})
	if err != nil {
		t.Fatalf("find positions: %v", err)
	}
	if len(got) != 1 || got[0].UnitID != "SPORTS_TOP" {
		t.Fatalf("positions = %+v", got)
	}
}
