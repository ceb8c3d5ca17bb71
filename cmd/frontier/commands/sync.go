package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/internal/marketdata"
)

var syncTickers []string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download and store daily price history",
	Long: `Fetches adjusted daily closes for the configured universe (or the
--tickers override) over the configured date range and replaces the stored
series per symbol.

Example:
  frontier sync
  frontier sync --tickers AAPL,MSFT`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringSliceVar(&syncTickers, "tickers", nil, "override the configured ticker universe")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	tickers := cfg.Tickers
	if len(syncTickers) > 0 {
		tickers = syncTickers
	}

	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return err
	}
	end, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return err
	}
	// period2 is exclusive on the chart API; push it past the last day.
	end = end.AddDate(0, 0, 1)

	db, err := openPriceDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store := history.NewStore(db.Conn(), log)
	client := marketdata.NewClient(log)
	syncer := marketdata.NewSyncer(client, store, log)

	counts, err := syncer.Sync(cmd.Context(), tickers, start, end)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Printf("Synced %d rows across %d symbols into %s\n", total, len(counts), cfg.DataDir)
	return nil
}
