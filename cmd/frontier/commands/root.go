// Package commands implements the frontier CLI.
package commands

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantcase/frontier/internal/cache"
	"github.com/quantcase/frontier/internal/config"
	"github.com/quantcase/frontier/internal/database"
	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/pkg/logger"
)

var (
	// Global flags
	logLevel string
	pretty   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Historical price analysis and mean-variance portfolio optimization",
	Long: `frontier fetches daily price history, computes return and risk
statistics over 6-month, 5-year and 21-year windows, selects tickers by
momentum, simulates random portfolios and traces the mean-variance
efficient frontier.

Examples:
  frontier sync
  frontier stats
  frontier analyze
  frontier cache purge`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called by main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "human-readable log output")
}

// setup loads configuration and builds the root logger. Every command
// starts here.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: pretty})
	return cfg, log, nil
}

// openPriceDB opens the price history database under the data directory.
func openPriceDB(cfg *config.Config) (*database.DB, error) {
	return database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "prices.db"),
		Profile: database.ProfileStandard,
		Name:    "prices",
		Schema:  history.Schema,
	})
}

// openCacheDB opens the calculation cache database.
func openCacheDB(cfg *config.Config) (*database.DB, error) {
	return database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
		Schema:  cache.Schema,
	})
}
