// Package main loads a YAML ad catalog into the SQLite catalog store.
package main

import (
	"context"
	"flag"
	"os"

	entrypoint "github.com/louisbranch/adgeletti/internal/platform/cmd"
	"github.com/louisbranch/adgeletti/internal/platform/config"
	catalogimporter "github.com/louisbranch/adgeletti/internal/tools/importer/catalog"
)

func main() {
	cfg, err := catalogimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = entrypoint.RunWithTelemetry(context.Background(), entrypoint.ServiceCatalogImporter, func(ctx context.Context) error {
		return catalogimporter.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
