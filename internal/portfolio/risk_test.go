package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/quantcase/frontier/internal/stats"
)

func TestRiskModelBuilder_Build(t *testing.T) {
	returns := map[string][]float64{
		"AAA": {0.01, -0.005, 0.02, 0.0, 0.008},
		"BBB": {-0.002, 0.015, -0.01, 0.005, 0.012},
	}
	symbols := []string{"AAA", "BBB"}

	model, err := NewRiskModelBuilder(false, zerolog.Nop()).Build(returns, symbols)
	require.NoError(t, err)

	require.Equal(t, symbols, model.Symbols)
	require.Len(t, model.Means, 2)
	require.Len(t, model.Covariance, 2)

	assert.InDelta(t, stat.Mean(returns["AAA"], nil)*stats.PeriodsPerYear, model.Means[0], 1e-12)
	assert.InDelta(t, stat.Covariance(returns["AAA"], returns["AAA"], nil)*stats.PeriodsPerYear, model.Covariance[0][0], 1e-12)
	assert.InDelta(t, stat.Covariance(returns["AAA"], returns["BBB"], nil)*stats.PeriodsPerYear, model.Covariance[0][1], 1e-12)
	assert.Equal(t, model.Covariance[0][1], model.Covariance[1][0])
}

func TestRiskModelBuilder_MissingSymbol(t *testing.T) {
	returns := map[string][]float64{
		"AAA": {0.01, 0.02},
	}

	_, err := NewRiskModelBuilder(false, zerolog.Nop()).Build(returns, []string{"AAA", "BBB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing returns")
}

func TestRiskModelBuilder_InconsistentLengths(t *testing.T) {
	returns := map[string][]float64{
		"AAA": {0.01, 0.02, 0.03},
		"BBB": {0.01, 0.02},
	}

	_, err := NewRiskModelBuilder(false, zerolog.Nop()).Build(returns, []string{"AAA", "BBB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent return lengths")
}

func TestApplyLedoitWolfShrinkage(t *testing.T) {
	sample := [][]float64{
		{0.04, 0.01, 0.002},
		{0.01, 0.09, 0.005},
		{0.002, 0.005, 0.0625},
	}

	shrunk, err := applyLedoitWolfShrinkage(sample)
	require.NoError(t, err)
	require.Len(t, shrunk, 3)

	avgVar := (0.04 + 0.09 + 0.0625) / 3
	for i := 0; i < 3; i++ {
		// Diagonals are pulled towards the average variance.
		lo := minFloat(sample[i][i], avgVar)
		hi := maxFloat(sample[i][i], avgVar)
		assert.GreaterOrEqual(t, shrunk[i][i], lo-1e-12)
		assert.LessOrEqual(t, shrunk[i][i], hi+1e-12)
		for j := 0; j < 3; j++ {
			assert.Equal(t, shrunk[i][j], shrunk[j][i])
		}
	}
}

func TestApplyLedoitWolfShrinkage_SingleAsset(t *testing.T) {
	shrunk, err := applyLedoitWolfShrinkage([][]float64{{0.04}})
	require.NoError(t, err)
	assert.Equal(t, 0.04, shrunk[0][0])
}

func TestHashSymbols_OrderIndependent(t *testing.T) {
	a := HashSymbols([]string{"MSFT", "AAPL", "JPM"})
	b := HashSymbols([]string{"AAPL", "JPM", "MSFT"})

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c := HashSymbols([]string{"AAPL", "JPM"})
	assert.NotEqual(t, a, c)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
