package stats

import (
	"github.com/markcheno/go-talib"

	"github.com/quantcase/frontier/internal/history"
)

const (
	rsiPeriod = 14
	emaPeriod = 200
)

// TechnicalSummary holds supplementary indicator readings for a ticker.
// These are descriptive context for the report, not inputs to the optimizer.
type TechnicalSummary struct {
	Symbol        string  `json:"symbol"`
	RSI14         float64 `json:"rsi_14"`
	EMA200        float64 `json:"ema_200"`
	AboveEMA200   bool    `json:"above_ema_200"`
	DistanceToEMA float64 `json:"distance_to_ema_pct"` // (close - EMA200) / EMA200
}

// ComputeTechnical calculates RSI-14 and EMA-200 readings for a series.
// Returns nil when the series is too short for the slowest indicator.
func ComputeTechnical(series history.Series) *TechnicalSummary {
	if series.Len() <= emaPeriod {
		return nil
	}

	rsi := talib.Rsi(series.Closes, rsiPeriod)
	ema := talib.Ema(series.Closes, emaPeriod)

	lastClose := series.Closes[series.Len()-1]
	lastRSI := rsi[len(rsi)-1]
	lastEMA := ema[len(ema)-1]

	if lastEMA <= 0 {
		return nil
	}

	return &TechnicalSummary{
		Symbol:        series.Symbol,
		RSI14:         lastRSI,
		EMA200:        lastEMA,
		AboveEMA200:   lastClose > lastEMA,
		DistanceToEMA: (lastClose - lastEMA) / lastEMA,
	}
}
