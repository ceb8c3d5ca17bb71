// Package report assembles the analysis output: a JSON report, a plain-text
// summary and the rendered charts, one directory per run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantcase/frontier/internal/momentum"
	"github.com/quantcase/frontier/internal/portfolio"
	"github.com/quantcase/frontier/internal/stats"
)

// Report is the complete result of one analysis run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`

	// Statistics per window name, then per symbol.
	Statistics map[string]map[string]stats.Summary `json:"statistics"`

	// Correlation matrix per window name, over the selected tickers.
	Correlations map[string][][]float64 `json:"correlations"`

	CorrelatedPairs  []stats.CorrelationPair   `json:"correlated_pairs"`
	Technical        []*stats.TechnicalSummary `json:"technical,omitempty"`
	Selection        momentum.Selection        `json:"selection"`
	SampleCount      int                       `json:"sample_count"`
	Frontier         *portfolio.Frontier       `json:"frontier"`
	TargetReturn     float64                   `json:"target_return"`
	TargetPortfolio  *portfolio.Portfolio      `json:"target_portfolio,omitempty"`
	TargetInfeasible string                    `json:"target_infeasible,omitempty"`
}

// NewRunID returns a fresh report identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Writer persists reports under a base output directory.
type Writer struct {
	outputDir string
	charts    *ChartRenderer
	log       zerolog.Logger
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string, log zerolog.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		charts:    NewChartRenderer(log),
		log:       log.With().Str("component", "report").Logger(),
	}
}

// Write stores the report and its charts under outputDir/<run id> and
// returns the run directory.
func (w *Writer) Write(rep *Report, samples []portfolio.Sampled) (string, error) {
	dir := filepath.Join(w.outputDir, rep.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(w.Summary(rep)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary.txt: %w", err)
	}

	if rep.Frontier != nil && len(samples) > 0 {
		if err := w.charts.FrontierChart(samples, rep.Frontier, filepath.Join(dir, "frontier.png")); err != nil {
			return "", err
		}
	}

	if len(rep.Statistics) > 0 {
		windows := make([]string, 0, len(rep.Statistics))
		for name := range rep.Statistics {
			windows = append(windows, name)
		}
		sort.Strings(windows)

		symbols := symbolsFromStatistics(rep.Statistics)
		if err := w.charts.ReturnBars(symbols, rep.Statistics, windows, filepath.Join(dir, "returns.png")); err != nil {
			return "", err
		}
	}

	// One correlation image is kept, rendered from the longest window.
	if matrix := rep.Correlations[stats.WindowTwentyOneYears.Name]; len(matrix) > 0 && rep.Frontier != nil {
		if err := w.charts.CorrelationTable(matrix, rep.Frontier.Symbols, filepath.Join(dir, "correlations.png")); err != nil {
			return "", err
		}
	}

	w.log.Info().
		Str("run_id", rep.RunID).
		Str("dir", dir).
		Msg("Report written")

	return dir, nil
}

// Summary renders the report as a human-readable text block.
func (w *Writer) Summary(rep *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Portfolio Analysis Report\n")
	fmt.Fprintf(&b, "Run:       %s\n", rep.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Period:    %s to %s\n", rep.StartDate, rep.EndDate)

	windows := make([]string, 0, len(rep.Statistics))
	for name := range rep.Statistics {
		windows = append(windows, name)
	}
	sort.Strings(windows)

	for _, window := range windows {
		fmt.Fprintf(&b, "\n[%s window]\n", window)
		fmt.Fprintf(&b, "%-8s %10s %10s %10s %8s\n", "Symbol", "GeoRet", "Vol", "Sharpe", "Obs")
		symbols := make([]string, 0, len(rep.Statistics[window]))
		for symbol := range rep.Statistics[window] {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			s := rep.Statistics[window][symbol]
			fmt.Fprintf(&b, "%-8s %9.2f%% %9.2f%% %10.2f %8d\n",
				s.Symbol, s.GeometricReturn*100, s.Volatility*100, s.SharpeRatio, s.Observations)
		}
	}

	if len(rep.Selection.Symbols) > 0 {
		fmt.Fprintf(&b, "\nSelected tickers: %s\n", strings.Join(rep.Selection.Symbols, ", "))
		fmt.Fprintf(&b, "  recent winners:     %s\n", strings.Join(rep.Selection.TopRecent, ", "))
		fmt.Fprintf(&b, "  long-term laggards: %s\n", strings.Join(rep.Selection.BottomLongTerm, ", "))
	}

	if len(rep.CorrelatedPairs) > 0 {
		fmt.Fprintf(&b, "\nHighly correlated pairs:\n")
		for _, p := range rep.CorrelatedPairs {
			fmt.Fprintf(&b, "  %s / %s: %.2f\n", p.SymbolA, p.SymbolB, p.Correlation)
		}
	}

	if rep.Frontier != nil {
		fmt.Fprintf(&b, "\nRandom portfolios sampled: %d\n", rep.SampleCount)
		fmt.Fprintf(&b, "Frontier points solved:    %d\n", len(rep.Frontier.Points))
		writePortfolio(&b, "Minimum volatility", rep.Frontier.MinVariance)
		writePortfolio(&b, "Maximum Sharpe", rep.Frontier.MaxSharpe)
	}

	if rep.TargetPortfolio != nil {
		writePortfolio(&b, fmt.Sprintf("Target return %.2f%%", rep.TargetReturn*100), *rep.TargetPortfolio)
	} else if rep.TargetInfeasible != "" {
		fmt.Fprintf(&b, "\nTarget return %.2f%%: %s\n", rep.TargetReturn*100, rep.TargetInfeasible)
	}

	return b.String()
}

func writePortfolio(b *strings.Builder, name string, p portfolio.Portfolio) {
	fmt.Fprintf(b, "\n%s portfolio:\n", name)
	fmt.Fprintf(b, "  return %.2f%%, volatility %.2f%%, sharpe %.2f\n",
		p.Return*100, p.Volatility*100, p.Sharpe)

	symbols := make([]string, 0, len(p.Weights))
	for symbol := range p.Weights {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		if p.Weights[symbol] < 0.0001 {
			continue
		}
		fmt.Fprintf(b, "  %-8s %6.2f%%\n", symbol, p.Weights[symbol]*100)
	}
}

func symbolsFromStatistics(statistics map[string]map[string]stats.Summary) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, byWindow := range statistics {
		for symbol := range byWindow {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}
	sort.Strings(symbols)
	return symbols
}
