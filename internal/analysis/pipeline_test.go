package analysis

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcase/frontier/internal/cache"
	"github.com/quantcase/frontier/internal/config"
	"github.com/quantcase/frontier/internal/database"
	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/internal/report"
)

// seedPrices writes a deterministic daily series: steady drift plus a
// per-symbol oscillation so the covariance matrix is well conditioned.
func seedPrices(t *testing.T, store *history.Store, symbol string, days int, drift, amp, freq float64) {
	t.Helper()

	prices := make([]history.DailyPrice, days)
	price := 100.0
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		prices[i] = history.DailyPrice{
			Date:     date.Format("2006-01-02"),
			AdjClose: price,
		}
		price *= 1 + drift + amp*math.Sin(float64(i)*freq)
		date = date.AddDate(0, 0, 1)
	}
	require.NoError(t, store.ReplaceHistory(symbol, prices))
}

func newTestPipeline(t *testing.T, cfg *config.Config) *Pipeline {
	t.Helper()

	priceDB, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "-prices?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "prices-test",
		Schema:  history.Schema,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = priceDB.Close() })

	cacheDB, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "-cache?mode=memory&cache=shared",
		Profile: database.ProfileCache,
		Name:    "cache-test",
		Schema:  cache.Schema,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheDB.Close() })

	store := history.NewStore(priceDB.Conn(), zerolog.Nop())
	seedPrices(t, store, "AAAA", 300, 0.0008, 0.004, 0.21)
	seedPrices(t, store, "BBBB", 300, 0.0002, 0.006, 0.37)
	seedPrices(t, store, "CCCC", 300, -0.0003, 0.005, 0.53)
	seedPrices(t, store, "DDDD", 300, 0.0005, 0.007, 0.71)

	writer := report.NewWriter(cfg.OutputDir, zerolog.Nop())
	return New(cfg, store, cache.New(cacheDB.Conn(), zerolog.Nop()), writer, zerolog.Nop())
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		OutputDir:      t.TempDir(),
		Tickers:        []string{"AAAA", "BBBB", "CCCC", "DDDD"},
		StartDate:      "2024-01-01",
		EndDate:        "2025-12-31",
		RiskFreeRate:   0.02,
		Selection:      config.SelectionPolicy{TopRecent: 2, BottomLongTerm: 2},
		NumPortfolios:  200,
		SampleSeed:     42,
		FrontierPoints: 20,
		TargetReturn:   0.05,
		MinWeight:      0,
		MaxWeight:      1,
	}
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg)

	rep, dir, err := p.Run()
	require.NoError(t, err)
	require.NotNil(t, rep)

	// All three windows computed for the whole universe.
	require.Len(t, rep.Statistics, 3)
	for _, window := range []string{"6m", "5y", "21y"} {
		require.Contains(t, rep.Statistics, window)
		assert.Len(t, rep.Statistics[window], 4)
	}

	// Selection drew from both rankings.
	assert.Len(t, rep.Selection.TopRecent, 2)
	assert.Len(t, rep.Selection.BottomLongTerm, 2)
	assert.NotEmpty(t, rep.Selection.Symbols)

	// One correlation matrix per window, square over the selected tickers.
	n := len(rep.Selection.Symbols)
	require.Len(t, rep.Correlations, 3)
	for _, window := range []string{"6m", "5y", "21y"} {
		matrix := rep.Correlations[window]
		require.Len(t, matrix, n, window)
		for i := 0; i < n; i++ {
			require.Len(t, matrix[i], n, window)
			assert.InDelta(t, 1.0, matrix[i][i], 1e-9)
			for j := 0; j < i; j++ {
				assert.Equal(t, matrix[j][i], matrix[i][j])
			}
		}
	}
	// The short window sees a different slice of history than the full one.
	assert.NotEqual(t, rep.Correlations["6m"], rep.Correlations["21y"])

	require.NotNil(t, rep.Frontier)
	assert.NotEmpty(t, rep.Frontier.Points)
	assert.Equal(t, 200, rep.SampleCount)

	// The report directory holds the JSON, summary and charts.
	for _, name := range []string{"report.json", "summary.txt", "frontier.png", "returns.png", "correlations.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestPipeline_TargetPortfolio(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg)

	rep, _, err := p.Run()
	require.NoError(t, err)

	// Either the target was reachable and solved, or the report names the
	// achievable range. Exactly one of the two holds.
	if rep.TargetPortfolio != nil {
		assert.Empty(t, rep.TargetInfeasible)
		assert.InDelta(t, cfg.TargetReturn, rep.TargetPortfolio.Return, 0.01)
	} else {
		assert.Contains(t, rep.TargetInfeasible, "outside achievable range")
	}
}

func TestPipeline_InfeasibleTargetIsReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetReturn = 25.0 // 2500% annual return
	p := newTestPipeline(t, cfg)

	rep, _, err := p.Run()
	require.NoError(t, err)

	assert.Nil(t, rep.TargetPortfolio)
	assert.Contains(t, rep.TargetInfeasible, "outside achievable range")
}

func TestPipeline_CachedRiskModelIsReused(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg)

	first, _, err := p.Run()
	require.NoError(t, err)

	second, _, err := p.Run()
	require.NoError(t, err)

	// The second run restores the model from cache, so the frontier inputs
	// and therefore the named portfolios are identical.
	assert.Equal(t, first.Frontier.MinVariance.Weights, second.Frontier.MinVariance.Weights)
}

func TestPipeline_MissingHistoryFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tickers = append(cfg.Tickers, "MISSING")
	p := newTestPipeline(t, cfg)

	_, _, err := p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
}
