// Package analysis runs the full study: statistics over the standard
// windows, momentum-based ticker selection, random portfolio simulation and
// the efficient frontier, finishing with a written report.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcase/frontier/internal/cache"
	"github.com/quantcase/frontier/internal/config"
	"github.com/quantcase/frontier/internal/history"
	"github.com/quantcase/frontier/internal/momentum"
	"github.com/quantcase/frontier/internal/portfolio"
	"github.com/quantcase/frontier/internal/report"
	"github.com/quantcase/frontier/internal/stats"
	"github.com/quantcase/frontier/internal/utils"
)

// HighCorrelationThreshold flags pairs worth calling out in the report.
const HighCorrelationThreshold = 0.80

// Pipeline wires the analysis stages together over stored price history.
type Pipeline struct {
	cfg    *config.Config
	store  *history.Store
	cache  *cache.Cache // optional
	writer *report.Writer
	log    zerolog.Logger
}

// New creates a pipeline. cache may be nil, in which case the risk model is
// rebuilt on every run.
func New(cfg *config.Config, store *history.Store, calcCache *cache.Cache, writer *report.Writer, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		cache:  calcCache,
		writer: writer,
		log:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full analysis and writes the report. It returns the
// report and the directory it was written to.
func (p *Pipeline) Run() (*report.Report, string, error) {
	timer := utils.NewTimer("analysis", p.log)
	defer timer.Stop()

	series, err := p.loadSeries(p.cfg.Tickers)
	if err != nil {
		return nil, "", err
	}

	statistics, err := p.computeStatistics(series)
	if err != nil {
		return nil, "", err
	}

	selector := momentum.NewSelector(p.cfg.Selection, p.log)
	selection, err := selector.Select(statistics[stats.WindowSixMonths.Name], statistics[stats.WindowFiveYears.Name])
	if err != nil {
		return nil, "", fmt.Errorf("ticker selection failed: %w", err)
	}

	p.log.Info().
		Strs("selected", selection.Symbols).
		Msg("Selected tickers for optimization")

	selected := make([]history.Series, 0, len(selection.Symbols))
	for _, s := range series {
		for _, symbol := range selection.Symbols {
			if s.Symbol == symbol {
				selected = append(selected, s)
				break
			}
		}
	}

	table := history.Align(selected).FillMissing()
	returns := table.Returns()

	correlations := make(map[string][][]float64, len(stats.StandardWindows))
	for _, window := range stats.StandardWindows {
		matrix, err := stats.CorrelationMatrix(table.Tail(window.Days).Returns(), selection.Symbols)
		if err != nil {
			return nil, "", fmt.Errorf("correlation matrix for window %s failed: %w", window.Name, err)
		}
		correlations[window.Name] = matrix
	}
	// Pairs worth flagging are judged on the longest window.
	pairs := stats.HighCorrelationPairs(correlations[stats.WindowTwentyOneYears.Name], selection.Symbols, HighCorrelationThreshold)

	model, err := p.buildRiskModel(returns, selection.Symbols)
	if err != nil {
		return nil, "", err
	}

	sampler := portfolio.NewSampler(p.cfg.SampleSeed, p.cfg.RiskFreeRate, p.log)
	samples, err := sampler.Sample(model, p.cfg.NumPortfolios)
	if err != nil {
		return nil, "", fmt.Errorf("portfolio sampling failed: %w", err)
	}

	optimizer := portfolio.NewOptimizer(p.cfg.RiskFreeRate, p.cfg.FrontierPoints, p.log)
	bounds := portfolio.UniformBounds(len(selection.Symbols), p.cfg.MinWeight, p.cfg.MaxWeight)

	frontier, err := optimizer.ComputeFrontier(model, bounds)
	if err != nil {
		return nil, "", fmt.Errorf("frontier optimization failed: %w", err)
	}

	rep := &report.Report{
		RunID:           report.NewRunID(),
		GeneratedAt:     time.Now().UTC(),
		StartDate:       p.cfg.StartDate,
		EndDate:         p.cfg.EndDate,
		Statistics:      statistics,
		Correlations:    correlations,
		CorrelatedPairs: pairs,
		Technical:       p.computeTechnical(series),
		Selection:       selection,
		SampleCount:     len(samples),
		Frontier:        frontier,
		TargetReturn:    p.cfg.TargetReturn,
	}

	target, err := optimizer.TargetReturn(model, bounds, p.cfg.TargetReturn)
	if err != nil {
		var infeasible portfolio.OptimizationInfeasibleError
		if !errors.As(err, &infeasible) {
			return nil, "", fmt.Errorf("target-return optimization failed: %w", err)
		}
		// An unreachable target is reported, never clamped to a portfolio
		// the client did not ask for.
		rep.TargetInfeasible = infeasible.Error()
		p.log.Warn().
			Float64("target", p.cfg.TargetReturn).
			Msg("Target return is infeasible under the configured bounds")
	} else {
		rep.TargetPortfolio = &target
	}

	dir, err := p.writer.Write(rep, samples)
	if err != nil {
		return nil, "", fmt.Errorf("failed to write report: %w", err)
	}

	return rep, dir, nil
}

func (p *Pipeline) loadSeries(symbols []string) ([]history.Series, error) {
	series := make([]history.Series, 0, len(symbols))
	for _, symbol := range symbols {
		s, err := p.store.GetSeries(symbol, p.cfg.StartDate, p.cfg.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
		}
		if s.Len() == 0 {
			return nil, fmt.Errorf("no stored history for %s: run sync first", symbol)
		}
		series = append(series, s)
	}
	return series, nil
}

// computeStatistics computes every window for every ticker. The result maps
// window name to symbol to summary.
func (p *Pipeline) computeStatistics(series []history.Series) (map[string]map[string]stats.Summary, error) {
	timer := utils.NewTimer("statistics", p.log)
	defer timer.Stop()

	statistics := make(map[string]map[string]stats.Summary, len(stats.StandardWindows))
	for _, window := range stats.StandardWindows {
		summaries, err := stats.ComputeAll(series, window, p.cfg.RiskFreeRate)
		if err != nil {
			return nil, fmt.Errorf("statistics for window %s failed: %w", window.Name, err)
		}
		statistics[window.Name] = summaries
	}
	return statistics, nil
}

func (p *Pipeline) computeTechnical(series []history.Series) []*stats.TechnicalSummary {
	out := make([]*stats.TechnicalSummary, 0, len(series))
	for _, s := range series {
		if t := stats.ComputeTechnical(s); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// buildRiskModel builds (or restores from cache) the annualized risk model
// for the selected symbols.
func (p *Pipeline) buildRiskModel(returns map[string][]float64, symbols []string) (*portfolio.RiskModel, error) {
	key := portfolio.HashSymbols(symbols) + ":" + p.cfg.StartDate + ":" + p.cfg.EndDate

	if p.cache != nil {
		var cached portfolio.RiskModel
		if p.cache.Get("risk_model", key, &cached) {
			p.log.Debug().Msg("Using cached risk model")
			return &cached, nil
		}
	}

	model, err := portfolio.NewRiskModelBuilder(p.cfg.UseShrinkage, p.log).Build(returns, symbols)
	if err != nil {
		return nil, fmt.Errorf("risk model failed: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set("risk_model", key, model, cache.TTLRiskModel); err != nil {
			p.log.Warn().Err(err).Msg("Failed to cache risk model")
		}
	}
	return model, nil
}
