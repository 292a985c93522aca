// Package web parses web service configuration and launches the service.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	catalogsqlite "github.com/louisbranch/adgeletti/internal/ads/catalog/sqlite"
	entrypoint "github.com/louisbranch/adgeletti/internal/platform/cmd"
	"github.com/louisbranch/adgeletti/internal/services/web"
	catalogimporter "github.com/louisbranch/adgeletti/internal/tools/importer/catalog"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr      string `env:"ADGELETTI_WEB_HTTP_ADDR" envDefault:"localhost:8086"`
	CatalogDBPath string `env:"ADGELETTI_CATALOG_DB_PATH"`
	CatalogFile   string `env:"ADGELETTI_CATALOG_FILE"`
	NetworkID     string `env:"ADGELETTI_NETWORK_ID"`
	DefaultSiteID string `env:"ADGELETTI_DEFAULT_SITE_ID" envDefault:"default"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.CatalogDBPath, "catalog-db-path", cfg.CatalogDBPath, "catalog database path (empty keeps the catalog in memory)")
	fs.StringVar(&cfg.CatalogFile, "catalog-file", cfg.CatalogFile, "YAML catalog file loaded at startup")
	fs.StringVar(&cfg.NetworkID, "network-id", cfg.NetworkID, "ad network id prefixed to every ad unit")
	fs.StringVar(&cfg.DefaultSiteID, "default-site-id", cfg.DefaultSiteID, "site used when the request host matches no site")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.NetworkID) == "" {
		return Config{}, errors.New("network id is required")
	}
	return cfg, nil
}

// Run starts the web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		store, closeStore, err := openCatalog(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Printf("close catalog: %v", err)
			}
		}()

		server, err := web.NewServer(web.Config{
			HTTPAddr:      cfg.HTTPAddr,
			NetworkID:     cfg.NetworkID,
			DefaultSiteID: cfg.DefaultSiteID,
			Catalog:       store,
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

// openCatalog opens the SQLite catalog when a path is configured and falls
// back to an in-memory one. A configured catalog file is loaded on top.
func openCatalog(ctx context.Context, cfg Config) (catalog.Store, func() error, error) {
	var (
		store     catalog.Store
		closeFunc = func() error { return nil }
	)
	if path := strings.TrimSpace(cfg.CatalogDBPath); path != "" {
		sqliteStore, err := catalogsqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog store: %w", err)
		}
		store = sqliteStore
		closeFunc = sqliteStore.Close
	} else {
		store = catalog.NewMemory()
	}

	if path := strings.TrimSpace(cfg.CatalogFile); path != "" {
		file, err := catalogimporter.ReadFile(path)
		if err == nil {
			var summary catalogimporter.Summary
			summary, err = file.Apply(ctx, store)
			if err == nil {
				log.Printf("loaded %s from %s", summary, path)
			}
		}
		if err != nil {
			_ = closeFunc()
			return nil, nil, fmt.Errorf("load catalog file %s: %w", path, err)
		}
	}
	return store, closeFunc, nil
}
