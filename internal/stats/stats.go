// Package stats computes per-ticker return and risk statistics.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/quantcase/frontier/internal/history"
)

// PeriodsPerYear is the number of trading days used for annualization.
const PeriodsPerYear = 252

// Window is a named lookback window in trading days
type Window struct {
	Name string
	Days int
}

// Standard lookback windows for the analysis
var (
	WindowSixMonths      = Window{Name: "6m", Days: 126}
	WindowFiveYears      = Window{Name: "5y", Days: 5 * PeriodsPerYear}
	WindowTwentyOneYears = Window{Name: "21y", Days: 21 * PeriodsPerYear}
)

// StandardWindows are the windows computed by the analysis pipeline,
// shortest first.
var StandardWindows = []Window{WindowSixMonths, WindowFiveYears, WindowTwentyOneYears}

// InsufficientDataError reports a window with too few observations to produce
// a defined statistic. It is returned instead of NaN-propagated numbers.
type InsufficientDataError struct {
	Symbol       string
	Window       string
	Observations int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s over window %s: %d observations (need at least 2)",
		e.Symbol, e.Window, e.Observations)
}

// Summary holds annualized statistics for one ticker over one window
type Summary struct {
	Symbol          string  `json:"symbol"`
	Window          string  `json:"window"`
	Observations    int     `json:"observations"`
	GeometricReturn float64 `json:"geometric_return"`
	ArithmeticMean  float64 `json:"arithmetic_mean"`
	Volatility      float64 `json:"volatility"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
}

// PeriodicReturns computes simple returns between consecutive closes.
// Fewer than two observations is an InsufficientDataError: there is no
// defined return for a single price.
func PeriodicReturns(symbol, window string, closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, InsufficientDataError{Symbol: symbol, Window: window, Observations: len(closes)}
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			return nil, fmt.Errorf("non-positive price %.4f for %s at observation %d", closes[i-1], symbol, i-1)
		}
		returns[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return returns, nil
}

// Compute calculates the annualized statistics for a series over the last
// window.Days observations. riskFreeRate is the annual risk-free rate used
// for the Sharpe ratio.
func Compute(series history.Series, window Window, riskFreeRate float64) (Summary, error) {
	tail := series.Tail(window.Days)

	returns, err := PeriodicReturns(series.Symbol, window.Name, tail.Closes)
	if err != nil {
		return Summary{}, err
	}

	n := float64(len(returns))
	first := tail.Closes[0]
	last := tail.Closes[len(tail.Closes)-1]

	// Compound growth over the window, scaled to a one-year horizon.
	geometric := math.Pow(last/first, PeriodsPerYear/n) - 1

	arithmetic := stat.Mean(returns, nil) * PeriodsPerYear
	volatility := stat.StdDev(returns, nil) * math.Sqrt(PeriodsPerYear)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (arithmetic - riskFreeRate) / volatility
	}

	return Summary{
		Symbol:          series.Symbol,
		Window:          window.Name,
		Observations:    len(tail.Closes),
		GeometricReturn: geometric,
		ArithmeticMean:  arithmetic,
		Volatility:      volatility,
		SharpeRatio:     sharpe,
	}, nil
}

// ComputeAll computes summaries for every series over the given window.
// Any series failing the minimum-observation requirement fails the batch:
// a silently dropped ticker would skew every downstream ranking.
func ComputeAll(series []history.Series, window Window, riskFreeRate float64) (map[string]Summary, error) {
	summaries := make(map[string]Summary, len(series))
	for _, s := range series {
		summary, err := Compute(s, window, riskFreeRate)
		if err != nil {
			return nil, err
		}
		summaries[s.Symbol] = summary
	}
	return summaries, nil
}
