// Package portfolio implements random portfolio simulation and the
// mean-variance efficient-frontier optimization.
package portfolio

import "fmt"

// Portfolio is a weight vector over the selected tickers paired with its
// derived statistics. Weights are non-negative and sum to 1.
type Portfolio struct {
	Weights    map[string]float64 `json:"weights"`
	Return     float64            `json:"return"`     // Expected annual return
	Volatility float64            `json:"volatility"` // Annualized
	Sharpe     float64            `json:"sharpe"`
}

// FrontierPoint is one solved point of the efficient-frontier sweep.
// Weights are ordered by the frontier's symbol slice.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"` // The swept target
	Return       float64   `json:"return"`        // Achieved return
	Volatility   float64   `json:"volatility"`
	Sharpe       float64   `json:"sharpe"`
	Weights      []float64 `json:"weights"`
}

// Frontier is the traced efficient frontier plus its named portfolios
type Frontier struct {
	Symbols       []string        `json:"symbols"`
	Points        []FrontierPoint `json:"points"`
	MinVariance   Portfolio       `json:"min_variance"`
	MaxSharpe     Portfolio       `json:"max_sharpe"`
	AchievableMin float64         `json:"achievable_min_return"` // Lowest return reachable under the bounds
	AchievableMax float64         `json:"achievable_max_return"` // Highest return reachable under the bounds
}

// OptimizationInfeasibleError reports a constraint the quadratic program
// could not satisfy. The violated requirement is always named so the caller
// never mistakes an infeasible run for a valid portfolio.
type OptimizationInfeasibleError struct {
	Target    *float64 // Set when a target return was infeasible
	MinReturn float64
	MaxReturn float64
	Reason    string
}

func (e OptimizationInfeasibleError) Error() string {
	if e.Target != nil {
		return fmt.Sprintf("optimization infeasible: target return %.4f outside achievable range [%.4f, %.4f]",
			*e.Target, e.MinReturn, e.MaxReturn)
	}
	return "optimization infeasible: " + e.Reason
}
