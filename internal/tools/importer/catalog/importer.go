// Package catalogimporter loads a YAML ad catalog into the SQLite catalog
// store.
package catalogimporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	catalogsqlite "github.com/louisbranch/adgeletti/internal/ads/catalog/sqlite"
)

// Config holds configuration for the catalog importer.
type Config struct {
	File   string
	DBPath string
	DryRun bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		DBPath: filepath.Join("data", "catalog.db"),
	}

	fs.StringVar(&cfg.File, "file", "", "YAML catalog file")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.File) == "" {
		return Config{}, errors.New("file is required")
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, errors.New("db-path is required")
	}

	return cfg, nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return errors.New("file is required")
	}
	file, err := ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if cfg.DryRun {
		summary, err := file.Validate()
		if err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		_, err = fmt.Fprintf(out, "validated %s\n", summary)
		return err
	}

	store, err := catalogsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer store.Close()

	summary, err := file.Apply(ctx, store)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	_, err = fmt.Fprintf(out, "imported %s into %s\n", summary, cfg.DBPath)
	return err
}
