package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-ticker statistics for the standard windows",
	Long: `Computes annualized return, volatility and Sharpe ratio for every
configured ticker over the 6-month, 5-year and 21-year windows, from the
stored price history.

Example:
  frontier stats`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := openPriceDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store := history.NewStore(db.Conn(), log)

	series := make([]history.Series, 0, len(cfg.Tickers))
	for _, symbol := range cfg.Tickers {
		s, err := store.GetSeries(symbol, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return fmt.Errorf("failed to load history for %s: %w", symbol, err)
		}
		if s.Len() == 0 {
			return fmt.Errorf("no stored history for %s: run sync first", symbol)
		}
		series = append(series, s)
	}

	for _, window := range stats.StandardWindows {
		summaries, err := stats.ComputeAll(series, window, cfg.RiskFreeRate)
		if err != nil {
			return err
		}

		fmt.Printf("\n[%s window]\n", window.Name)
		fmt.Printf("%-8s %10s %10s %10s %10s %8s\n", "Symbol", "GeoRet", "ArithRet", "Vol", "Sharpe", "Obs")
		for _, symbol := range cfg.Tickers {
			s := summaries[symbol]
			fmt.Printf("%-8s %9.2f%% %9.2f%% %9.2f%% %10.2f %8d\n",
				s.Symbol, s.GeometricReturn*100, s.ArithmeticMean*100, s.Volatility*100, s.SharpeRatio, s.Observations)
		}
	}

	return nil
}
