package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantcase/frontier/internal/analysis"
	"github.com/quantcase/frontier/internal/cache"
	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/internal/report"
)

var analyzeNoCache bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis and write a report",
	Long: `Runs the complete study over the stored price history: statistics
per window, momentum-based ticker selection, random portfolio simulation
and the efficient frontier with its named portfolios. Writes the JSON
report, text summary and charts to a per-run output directory.

Example:
  frontier analyze
  frontier analyze --no-cache`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "recompute the risk model instead of reusing cached results")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	priceDB, err := openPriceDB(cfg)
	if err != nil {
		return err
	}
	defer priceDB.Close()

	var calcCache *cache.Cache
	if !analyzeNoCache {
		cacheDB, err := openCacheDB(cfg)
		if err != nil {
			return err
		}
		defer cacheDB.Close()
		calcCache = cache.New(cacheDB.Conn(), log)
	}

	store := history.NewStore(priceDB.Conn(), log)
	writer := report.NewWriter(cfg.OutputDir, log)
	pipeline := analysis.New(cfg, store, calcCache, writer, log)

	rep, dir, err := pipeline.Run()
	if err != nil {
		return err
	}

	fmt.Print(writer.Summary(rep))
	fmt.Printf("\nReport written to %s\n", dir)
	return nil
}
