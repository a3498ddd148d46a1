// Command audit runs degree audits and inspects the major registry from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/database"
	"github.com/stemsi/degree-audit/internal/logger"
	"github.com/stemsi/degree-audit/internal/registry"
	"github.com/stemsi/degree-audit/internal/repository"
)

var (
	registryFile string
	catalogFile  string
	jsonOutput   bool
	noColor      bool
	verbose      bool
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "audit",
	Short: "Degree requirement audits from the command line",
	Long: `Compare completed courses against a major's requirements.

Catalog tables come from a YAML file (--catalog) or, when no file is
given, from the PostgreSQL catalog at DATABASE_URL.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || jsonOutput {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "Major registry YAML (default: embedded)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Catalog YAML file (default: PostgreSQL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(runCmd, majorsCmd, requirementsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level, "pretty")
}

func loadRegistry() (*registry.Registry, error) {
	if registryFile != "" {
		return registry.LoadFile(registryFile)
	}
	return registry.Default()
}

// openCatalog returns the catalog provider and a cleanup func.
func openCatalog(ctx context.Context, log zerolog.Logger) (catalog.Provider, func(), error) {
	if catalogFile != "" {
		f, err := os.Open(catalogFile)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		p, err := catalog.LoadYAML(f)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog %s: %w", catalogFile, err)
		}
		return p, func() {}, nil
	}

	cfg := config.Load()
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCatalogRepository(pool), pool.Close, nil
}
