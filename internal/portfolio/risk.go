package portfolio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/quantcase/frontier/internal/stats"
	"github.com/rs/zerolog"
)

// HashSymbols creates a deterministic hash from a list of symbols for cache
// keys. Symbols are sorted so the key does not depend on input order.
func HashSymbols(symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	combined := strings.Join(sorted, ",")
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:16])
}

// RiskModel holds the annualized inputs of the mean-variance problem:
// expected returns and the covariance matrix, both in the order of Symbols.
type RiskModel struct {
	Symbols    []string    `json:"symbols"`
	Means      []float64   `json:"means"`      // Annualized expected returns
	Covariance [][]float64 `json:"covariance"` // Annualized
}

// RiskModelBuilder builds annualized covariance matrices from daily returns.
type RiskModelBuilder struct {
	useShrinkage bool
	log          zerolog.Logger
}

// NewRiskModelBuilder creates a risk model builder. When useShrinkage is set,
// the sample covariance is shrunk towards a constant-correlation target
// (Ledoit-Wolf style) before annualization.
func NewRiskModelBuilder(useShrinkage bool, log zerolog.Logger) *RiskModelBuilder {
	return &RiskModelBuilder{
		useShrinkage: useShrinkage,
		log:          log.With().Str("component", "risk_model").Logger(),
	}
}

// Build computes annualized expected returns and the annualized covariance
// matrix from daily returns. All series must cover the same observations.
func (rb *RiskModelBuilder) Build(returns map[string][]float64, symbols []string) (*RiskModel, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	dailyCov, err := sampleCovariance(returns, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sample covariance: %w", err)
	}

	if rb.useShrinkage {
		dailyCov, err = applyLedoitWolfShrinkage(dailyCov)
		if err != nil {
			return nil, fmt.Errorf("failed to apply shrinkage: %w", err)
		}
	}

	n := len(symbols)
	means := make([]float64, n)
	cov := make([][]float64, n)
	for i, symbol := range symbols {
		means[i] = stat.Mean(returns[symbol], nil) * stats.PeriodsPerYear
		cov[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cov[i][j] = dailyCov[i][j] * stats.PeriodsPerYear
		}
	}

	rb.log.Debug().
		Int("matrix_size", n).
		Bool("shrinkage", rb.useShrinkage).
		Msg("Built annualized risk model")

	return &RiskModel{Symbols: symbols, Means: means, Covariance: cov}, nil
}

// sampleCovariance calculates the sample covariance matrix of daily returns.
// Element (i,j) is the covariance between symbols[i] and symbols[j].
func sampleCovariance(returns map[string][]float64, symbols []string) ([][]float64, error) {
	var returnLength int
	for _, symbol := range symbols {
		ret, ok := returns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing returns for symbol %s", symbol)
		}
		if returnLength == 0 {
			returnLength = len(ret)
		}
		if len(ret) != returnLength {
			return nil, fmt.Errorf("inconsistent return lengths: expected %d, got %d for symbol %s", returnLength, len(ret), symbol)
		}
	}

	if returnLength < 2 {
		return nil, fmt.Errorf("insufficient data: need at least 2 observations, got %d", returnLength)
	}

	n := len(symbols)
	covMatrix := make([][]float64, n)
	for i := range covMatrix {
		covMatrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := stat.Covariance(returns[symbols[i]], returns[symbols[j]], nil)
			covMatrix[i][j] = cov
			if i != j {
				covMatrix[j][i] = cov // Symmetry
			}
		}
	}

	return covMatrix, nil
}

// applyLedoitWolfShrinkage shrinks a sample covariance matrix towards a
// constant-correlation target to improve conditioning with limited data.
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator
// for large-dimensional covariance matrices"
func applyLedoitWolfShrinkage(sampleCov [][]float64) ([][]float64, error) {
	n := len(sampleCov)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}
	if n == 1 {
		return sampleCov, nil
	}

	// Shrinkage target: average variance on the diagonal, average covariance
	// off the diagonal (constant correlation model).
	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sampleCov[i][i]
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sampleCov[i][j]
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := make([][]float64, n)
	for i := 0; i < n; i++ {
		target[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				target[i][j] = avgVar
			} else if avgVar > 0 {
				target[i][j] = avgCov
			}
		}
	}

	// Simplified intensity estimate: balance the dispersion of the sample
	// elements against their distance from the target, capped at 0.5.
	shrinkage := 0.2
	if n > 2 && avgVar > 0 {
		var sumSqDiff float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				diff := sampleCov[i][j] - target[i][j]
				sumSqDiff += diff * diff
			}
		}
		meanSqDiff := sumSqDiff / float64(n*n)

		var sumSq, mean float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				mean += sampleCov[i][j]
				sumSq += sampleCov[i][j] * sampleCov[i][j]
			}
		}
		count := float64(n * n)
		mean /= count
		varSample := sumSq/count - mean*mean

		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			shrunk[i][j] = (1-shrinkage)*sampleCov[i][j] + shrinkage*target[i][j]
		}
	}

	return shrunk, nil
}
