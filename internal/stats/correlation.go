package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix computes the Pearson correlation matrix over the given
// symbols from their aligned periodic-return series. Element (i,j) is the
// correlation between symbols[i] and symbols[j].
func CorrelationMatrix(returns map[string][]float64, symbols []string) ([][]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	var length int
	for _, symbol := range symbols {
		ret, ok := returns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing returns for symbol %s", symbol)
		}
		if length == 0 {
			length = len(ret)
		}
		if len(ret) != length {
			return nil, fmt.Errorf("inconsistent return lengths: expected %d, got %d for %s", length, len(ret), symbol)
		}
	}
	if length < 2 {
		return nil, InsufficientDataError{Symbol: symbols[0], Window: "correlation", Observations: length}
	}

	n := len(symbols)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := stat.Correlation(returns[symbols[i]], returns[symbols[j]], nil)
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}

	return matrix, nil
}

// HighCorrelationPairs extracts pairs whose absolute correlation meets the
// threshold. Used for diversification diagnostics in the report.
func HighCorrelationPairs(matrix [][]float64, symbols []string, threshold float64) []CorrelationPair {
	pairs := make([]CorrelationPair, 0)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			corr := matrix[i][j]
			if corr >= threshold || corr <= -threshold {
				pairs = append(pairs, CorrelationPair{
					SymbolA:     symbols[i],
					SymbolB:     symbols[j],
					Correlation: corr,
				})
			}
		}
	}
	return pairs
}

// CorrelationPair records a notable pairwise correlation
type CorrelationPair struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Correlation float64 `json:"correlation"`
}
