// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantcase/frontier/internal/utils"
)

// SelectionPolicy controls how the momentum selector combines its rankings.
// The counts are deliberately configuration rather than constants: the rule is
// a policy choice, not a property of the data.
type SelectionPolicy struct {
	TopRecent      int // Best performers by 6-month annualized return
	BottomLongTerm int // Worst performers by 5-year annualized return
}

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the price and cache databases
	OutputDir string // Directory for rendered charts and reports

	Tickers   []string // Universe to fetch and analyze
	StartDate string   // YYYY-MM-DD, inclusive
	EndDate   string   // YYYY-MM-DD, inclusive

	RiskFreeRate float64 // Annual risk-free rate used for Sharpe ratios

	Selection SelectionPolicy

	NumPortfolios  int   // Random portfolios sampled for the feasible-region cloud
	SampleSeed     int64 // 0 = non-deterministic seed
	FrontierPoints int   // Target returns swept when tracing the frontier
	TargetReturn   float64

	MinWeight float64 // Per-asset lower bound, applied uniformly
	MaxWeight float64 // Per-asset upper bound, applied uniformly

	UseShrinkage bool // Ledoit-Wolf shrinkage on the covariance estimate

	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	outputDir := getEnv("FRONTIER_OUTPUT_DIR", "out")
	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}

	now := time.Now().UTC()
	cfg := &Config{
		DataDir:   absDataDir,
		OutputDir: absOutputDir,
		Tickers: utils.ParseCSV(getEnv("FRONTIER_TICKERS",
			"AAPL,MSFT,JPM,BAC,XOM,CVX,JNJ,PFE,KO,PEP")),
		// Default range covers the longest (21 year) statistics window.
		StartDate: getEnv("FRONTIER_START", now.AddDate(-21, 0, 0).Format("2006-01-02")),
		EndDate:   getEnv("FRONTIER_END", now.Format("2006-01-02")),

		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.0),

		Selection: SelectionPolicy{
			TopRecent:      getEnvAsInt("SELECT_TOP_RECENT", 3),
			BottomLongTerm: getEnvAsInt("SELECT_BOTTOM_LONG_TERM", 3),
		},

		NumPortfolios:  getEnvAsInt("NUM_PORTFOLIOS", 10000),
		SampleSeed:     int64(getEnvAsInt("SAMPLE_SEED", 0)),
		FrontierPoints: getEnvAsInt("FRONTIER_POINTS", 100),
		TargetReturn:   getEnvAsFloat("TARGET_RETURN", 0.10),

		MinWeight: getEnvAsFloat("MIN_WEIGHT", 0.0),
		MaxWeight: getEnvAsFloat("MAX_WEIGHT", 1.0),

		UseShrinkage: getEnvAsBool("USE_SHRINKAGE", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("no tickers configured")
	}
	if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
		return fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
	}
	if _, err := time.Parse("2006-01-02", c.EndDate); err != nil {
		return fmt.Errorf("invalid end date %q: %w", c.EndDate, err)
	}
	if c.StartDate >= c.EndDate {
		return fmt.Errorf("start date %s must precede end date %s", c.StartDate, c.EndDate)
	}
	if c.Selection.TopRecent < 0 || c.Selection.BottomLongTerm < 0 {
		return fmt.Errorf("selection counts must be non-negative")
	}
	if c.Selection.TopRecent+c.Selection.BottomLongTerm == 0 {
		return fmt.Errorf("selection policy would select no tickers")
	}
	if c.NumPortfolios < 1 || c.NumPortfolios > 1000000 {
		return fmt.Errorf("num portfolios %d out of range [1, 1000000]", c.NumPortfolios)
	}
	if c.FrontierPoints < 2 {
		return fmt.Errorf("frontier points %d must be at least 2", c.FrontierPoints)
	}
	if c.MinWeight < 0 || c.MaxWeight > 1 || c.MinWeight > c.MaxWeight {
		return fmt.Errorf("invalid weight bounds [%.4f, %.4f]", c.MinWeight, c.MaxWeight)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
