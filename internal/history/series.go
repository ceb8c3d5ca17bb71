package history

import (
	"math"
	"sort"
)

// Series is a per-ticker ordered sequence of (date, adjusted close)
type Series struct {
	Symbol string
	Dates  []string
	Closes []float64
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Closes)
}

// Tail returns the last n observations (or the whole series if shorter)
func (s Series) Tail(n int) Series {
	if n >= s.Len() {
		return s
	}
	start := s.Len() - n
	return Series{
		Symbol: s.Symbol,
		Dates:  s.Dates[start:],
		Closes: s.Closes[start:],
	}
}

// Table is a set of series aligned onto a common ascending date grid.
// Missing observations are NaN until FillMissing is applied.
type Table struct {
	Dates []string
	Data  map[string][]float64
}

// Align places the given series onto the union of their dates. Dates a symbol
// has no observation for are marked NaN.
func Align(series []Series) Table {
	dateSet := make(map[string]bool)
	for _, s := range series {
		for _, d := range s.Dates {
			dateSet[d] = true
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dateIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIndex[d] = i
	}

	data := make(map[string][]float64, len(series))
	for _, s := range series {
		row := make([]float64, len(dates))
		for i := range row {
			row[i] = math.NaN()
		}
		for i, d := range s.Dates {
			row[dateIndex[d]] = s.Closes[i]
		}
		data[s.Symbol] = row
	}

	return Table{Dates: dates, Data: data}
}

// FillMissing fills gaps using forward-fill then back-fill for leading NaNs.
func (t Table) FillMissing() Table {
	filled := Table{
		Dates: t.Dates,
		Data:  make(map[string][]float64, len(t.Data)),
	}

	for symbol, prices := range t.Data {
		row := make([]float64, len(prices))
		copy(row, prices)

		// Forward-fill
		var lastValid float64
		hasLastValid := false
		for i := 0; i < len(row); i++ {
			if math.IsNaN(row[i]) {
				if hasLastValid {
					row[i] = lastValid
				}
			} else {
				lastValid = row[i]
				hasLastValid = true
			}
		}

		// Back-fill leading NaNs
		var nextValid float64
		hasNextValid := false
		for i := len(row) - 1; i >= 0; i-- {
			if math.IsNaN(row[i]) {
				if hasNextValid {
					row[i] = nextValid
				}
			} else {
				nextValid = row[i]
				hasNextValid = true
			}
		}

		filled.Data[symbol] = row
	}

	return filled
}

// Returns computes simple periodic returns per symbol from the aligned table.
// Observations that cannot produce a valid ratio contribute a zero return.
func (t Table) Returns() map[string][]float64 {
	returns := make(map[string][]float64, len(t.Data))

	for symbol, prices := range t.Data {
		if len(prices) < 2 {
			returns[symbol] = []float64{}
			continue
		}

		periodic := make([]float64, len(prices)-1)
		for i := 1; i < len(prices); i++ {
			if prices[i-1] > 0 && !math.IsNaN(prices[i]) && !math.IsNaN(prices[i-1]) {
				periodic[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
			}
		}
		returns[symbol] = periodic
	}

	return returns
}

// Tail returns the table restricted to the last n dates
func (t Table) Tail(n int) Table {
	if n >= len(t.Dates) {
		return t
	}
	start := len(t.Dates) - n

	data := make(map[string][]float64, len(t.Data))
	for symbol, prices := range t.Data {
		data[symbol] = prices[start:]
	}
	return Table{Dates: t.Dates[start:], Data: data}
}
