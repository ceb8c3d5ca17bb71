package momentum

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcase/frontier/internal/config"
	"github.com/quantcase/frontier/internal/stats"
)

func summaries(returns map[string]float64) map[string]stats.Summary {
	out := make(map[string]stats.Summary, len(returns))
	for symbol, ret := range returns {
		out[symbol] = stats.Summary{Symbol: symbol, GeometricReturn: ret}
	}
	return out
}

func TestSelect_TopAndBottom(t *testing.T) {
	recent := summaries(map[string]float64{
		"A": 0.30, "B": 0.20, "C": 0.10, "D": 0.05, "E": -0.10,
	})
	longTerm := summaries(map[string]float64{
		"A": 0.15, "B": 0.12, "C": 0.02, "D": -0.05, "E": 0.08,
	})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 2, BottomLongTerm: 2}, zerolog.Nop())
	selection, err := selector.Select(recent, longTerm)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, selection.TopRecent)
	assert.Equal(t, []string{"D", "C"}, selection.BottomLongTerm)
	assert.Equal(t, []string{"A", "B", "C", "D"}, selection.Symbols)
}

func TestSelect_DeduplicatesOverlap(t *testing.T) {
	// D is both a recent winner and a long-term loser
	recent := summaries(map[string]float64{"A": 0.1, "B": 0.2, "C": 0.05, "D": 0.3})
	longTerm := summaries(map[string]float64{"A": 0.1, "B": 0.2, "C": 0.05, "D": -0.3})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 2, BottomLongTerm: 2}, zerolog.Nop())
	selection, err := selector.Select(recent, longTerm)
	require.NoError(t, err)

	assert.Contains(t, selection.TopRecent, "D")
	assert.Contains(t, selection.BottomLongTerm, "D")
	assert.Equal(t, []string{"B", "C", "D"}, selection.Symbols)
}

func TestSelect_TieBreakBySymbol(t *testing.T) {
	recent := summaries(map[string]float64{"Z": 0.1, "A": 0.1, "M": 0.1})
	longTerm := summaries(map[string]float64{"Z": 0.1, "A": 0.1, "M": 0.1})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 2, BottomLongTerm: 0}, zerolog.Nop())
	selection, err := selector.Select(recent, longTerm)
	require.NoError(t, err)

	// Equal returns resolve alphabetically
	assert.Equal(t, []string{"A", "M"}, selection.TopRecent)
}

func TestSelect_Deterministic(t *testing.T) {
	recent := summaries(map[string]float64{"A": 0.3, "B": 0.2, "C": 0.1, "D": 0.0, "E": -0.1})
	longTerm := summaries(map[string]float64{"A": 0.1, "B": 0.0, "C": -0.1, "D": 0.2, "E": 0.3})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 3, BottomLongTerm: 3}, zerolog.Nop())

	first, err := selector.Select(recent, longTerm)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := selector.Select(recent, longTerm)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelect_CountLargerThanUniverse(t *testing.T) {
	recent := summaries(map[string]float64{"A": 0.1, "B": 0.2})
	longTerm := summaries(map[string]float64{"A": 0.1, "B": 0.2})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 5, BottomLongTerm: 0}, zerolog.Nop())
	selection, err := selector.Select(recent, longTerm)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, selection.Symbols)
}

func TestSelect_MismatchedUniverses(t *testing.T) {
	recent := summaries(map[string]float64{"A": 0.1, "B": 0.2})
	longTerm := summaries(map[string]float64{"A": 0.1})

	selector := NewSelector(config.SelectionPolicy{TopRecent: 1, BottomLongTerm: 1}, zerolog.Nop())
	_, err := selector.Select(recent, longTerm)
	assert.Error(t, err)
}

func TestSelect_EmptyInput(t *testing.T) {
	selector := NewSelector(config.SelectionPolicy{TopRecent: 1, BottomLongTerm: 1}, zerolog.Nop())
	_, err := selector.Select(nil, nil)
	assert.Error(t, err)
}
