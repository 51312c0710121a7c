// Package cli implements the manualdex command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
	"github.com/egregore-labs/manualdex/internal/logger"
)

// Services bundles the core services the commands run against, plus a
// close hook releasing their adapters.
type Services struct {
	Search    driving.SearchService
	Ingest    driving.IngestService
	Documents driving.DocumentService
	Close     func() error
}

// Initializer builds the service graph from a config file path. main
// injects it so the CLI package stays free of adapter wiring.
type Initializer func(configPath string) (*Services, error)

var (
	initServices Initializer
	services     *Services

	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "manualdex",
	Short: "Hybrid search over equipment manuals",
	Long: `manualdex indexes PDF equipment manuals and answers queries with
page-level citations, combining keyword (BM25) and semantic (vector)
search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.manualdex/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetInitializer installs the service factory. Must be called before
// Execute.
func SetInitializer(fn Initializer) {
	initServices = fn
}

// ensureServices lazily builds the service graph on first use.
func ensureServices() (*Services, error) {
	if services != nil {
		return services, nil
	}
	if initServices == nil {
		return nil, errors.New("services not configured")
	}

	built, err := initServices(configPath)
	if err != nil {
		return nil, fmt.Errorf("initializing services: %w", err)
	}
	services = built
	return services, nil
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()

	if services != nil && services.Close != nil {
		if closeErr := services.Close(); closeErr != nil {
			logger.Warn("closing services: %v", closeErr)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
