package portfolio

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/rs/zerolog"
)

const (
	penaltyWeight = 1000.0
	// returnTolerance is the slack allowed when checking a target return
	// against the achievable range.
	returnTolerance = 1e-6
)

// Bounds holds per-asset weight limits, ordered like the risk model's
// symbols. Min entries must be non-negative (long-only).
type Bounds struct {
	Min []float64
	Max []float64
}

// UniformBounds builds identical [min, max] limits for n assets.
func UniformBounds(n int, min, max float64) Bounds {
	b := Bounds{Min: make([]float64, n), Max: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Min[i] = min
		b.Max[i] = max
	}
	return b
}

// Optimizer traces the mean-variance efficient frontier and solves its
// named portfolios. The quadratic program is solved with a penalty method:
// constraint violations are added to the objective with a large weight, the
// solution is projected back to the bounds and renormalized.
type Optimizer struct {
	riskFree float64
	points   int
	log      zerolog.Logger
}

// NewOptimizer creates an optimizer sweeping the given number of frontier
// points. riskFree is the annual risk-free rate used for Sharpe ratios.
func NewOptimizer(riskFree float64, points int, log zerolog.Logger) *Optimizer {
	if points < 2 {
		points = 2
	}
	return &Optimizer{
		riskFree: riskFree,
		points:   points,
		log:      log.With().Str("component", "optimizer").Logger(),
	}
}

// ComputeFrontier traces the efficient frontier by sweeping target returns
// between the lowest and highest returns achievable under the bounds,
// minimizing variance at each target. It also solves the global
// minimum-variance portfolio and extracts the maximum-Sharpe point.
//
// Sweep targets where the solver fails to converge are skipped; an entirely
// empty sweep is an error.
func (o *Optimizer) ComputeFrontier(model *RiskModel, bounds Bounds) (*Frontier, error) {
	n := len(model.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no assets to optimize")
	}
	if len(model.Means) != n || len(model.Covariance) != n {
		return nil, fmt.Errorf("risk model dimensions do not match %d symbols", n)
	}
	if err := validateBounds(bounds, n); err != nil {
		return nil, err
	}
	if err := validateCovariance(model.Covariance); err != nil {
		return nil, err
	}

	minReturn := extremeReturn(model.Means, bounds, false)
	maxReturn := extremeReturn(model.Means, bounds, true)

	o.log.Info().
		Int("num_assets", n).
		Int("sweep_points", o.points).
		Float64("min_return", minReturn).
		Float64("max_return", maxReturn).
		Msg("Tracing efficient frontier")

	minVarWeights, err := o.solve(model, bounds, nil)
	if err != nil {
		return nil, fmt.Errorf("minimum-variance optimization failed: %w", err)
	}
	minVariance := o.portfolioFrom(minVarWeights, model)

	targets := make([]float64, o.points)
	floats.Span(targets, minReturn, maxReturn)

	points := make([]FrontierPoint, 0, o.points)
	for _, target := range targets {
		weights, err := o.solve(model, bounds, &target)
		if err != nil {
			o.log.Debug().
				Float64("target", target).
				Err(err).
				Msg("Skipping non-convergent frontier point")
			continue
		}
		ret, vol := Evaluate(weights, model.Means, model.Covariance)
		sharpe := 0.0
		if vol > 0 {
			sharpe = (ret - o.riskFree) / vol
		}
		points = append(points, FrontierPoint{
			TargetReturn: target,
			Return:       ret,
			Volatility:   vol,
			Sharpe:       sharpe,
			Weights:      weights,
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("efficient frontier is empty: no sweep target converged")
	}

	best := 0
	for i, p := range points {
		if p.Sharpe > points[best].Sharpe {
			best = i
		}
	}
	maxSharpe := o.portfolioFrom(points[best].Weights, model)

	o.log.Info().
		Int("solved_points", len(points)).
		Float64("min_variance_vol", minVariance.Volatility).
		Float64("max_sharpe", maxSharpe.Sharpe).
		Msg("Efficient frontier complete")

	return &Frontier{
		Symbols:       model.Symbols,
		Points:        points,
		MinVariance:   minVariance,
		MaxSharpe:     maxSharpe,
		AchievableMin: minReturn,
		AchievableMax: maxReturn,
	}, nil
}

// TargetReturn solves the minimum-variance portfolio for a specific annual
// return objective. A target outside the achievable range returns an
// OptimizationInfeasibleError naming the range; it is never silently clamped.
func (o *Optimizer) TargetReturn(model *RiskModel, bounds Bounds, target float64) (Portfolio, error) {
	n := len(model.Symbols)
	if err := validateBounds(bounds, n); err != nil {
		return Portfolio{}, err
	}
	if err := validateCovariance(model.Covariance); err != nil {
		return Portfolio{}, err
	}

	minReturn := extremeReturn(model.Means, bounds, false)
	maxReturn := extremeReturn(model.Means, bounds, true)
	if target < minReturn-returnTolerance || target > maxReturn+returnTolerance {
		return Portfolio{}, OptimizationInfeasibleError{
			Target:    &target,
			MinReturn: minReturn,
			MaxReturn: maxReturn,
		}
	}

	weights, err := o.solve(model, bounds, &target)
	if err != nil {
		return Portfolio{}, fmt.Errorf("target-return optimization failed: %w", err)
	}
	return o.portfolioFrom(weights, model), nil
}

// solve minimizes w'Σw subject to sum(w)=1, the bounds, and optionally
// μ'w=target, all enforced via quadratic penalties.
func (o *Optimizer) solve(model *RiskModel, bounds Bounds, target *float64) ([]float64, error) {
	n := len(model.Means)
	mu := model.Means
	sigma := model.Covariance

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x, bounds)

			var variance float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma[i][j]
				}
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			obj := variance
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)

			if target != nil {
				portfolioReturn := 0.0
				for i := 0; i < n; i++ {
					portfolioReturn += mu[i] * xProj[i]
				}
				obj += penaltyWeight * (portfolioReturn - *target) * (portfolioReturn - *target)
			}

			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x, bounds)

			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * sigma[i][j] * xProj[j]
				}
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}

			if target != nil {
				portfolioReturn := 0.0
				for i := 0; i < n; i++ {
					portfolioReturn += mu[i] * xProj[i]
				}
				for i := 0; i < n; i++ {
					grad[i] += 2 * penaltyWeight * (portfolioReturn - *target) * mu[i]
				}
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if !converged(result) {
			return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
		}
	}

	xFinal := projectToBounds(result.X, bounds)
	sum := 0.0
	for i := range xFinal {
		sum += xFinal[i]
	}
	weights := make([]float64, n)
	for i := range xFinal {
		weights[i] = math.Max(0.0, xFinal[i]/math.Max(sum, 1e-10))
	}

	// Renormalize after clamping so the weights end exactly on the simplex.
	sum = 0.0
	for _, w := range weights {
		sum += w
	}
	if sum > 0 {
		for i := range weights {
			weights[i] /= sum
		}
	}

	return weights, nil
}

func converged(result *optimize.Result) bool {
	return result.Status == optimize.Success ||
		result.Status == optimize.GradientThreshold ||
		result.Status == optimize.FunctionConvergence
}

func (o *Optimizer) portfolioFrom(weights []float64, model *RiskModel) Portfolio {
	ret, vol := Evaluate(weights, model.Means, model.Covariance)
	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - o.riskFree) / vol
	}
	byNames := make(map[string]float64, len(weights))
	for i, symbol := range model.Symbols {
		byNames[symbol] = weights[i]
	}
	return Portfolio{
		Weights:    byNames,
		Return:     ret,
		Volatility: vol,
		Sharpe:     sharpe,
	}
}

func projectToBounds(x []float64, bounds Bounds) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, bounds.Min[i]), bounds.Max[i])
	}
	return out
}

func validateBounds(bounds Bounds, n int) error {
	if len(bounds.Min) != n || len(bounds.Max) != n {
		return fmt.Errorf("bounds dimensions do not match %d assets", n)
	}
	sumMin, sumMax := 0.0, 0.0
	for i := 0; i < n; i++ {
		if bounds.Min[i] < 0 {
			return fmt.Errorf("negative minimum weight for asset %d: %v", i, bounds.Min[i])
		}
		if bounds.Min[i] > bounds.Max[i] {
			return fmt.Errorf("minimum weight exceeds maximum for asset %d", i)
		}
		sumMin += bounds.Min[i]
		sumMax += bounds.Max[i]
	}
	if sumMin > 1+returnTolerance || sumMax < 1-returnTolerance {
		return OptimizationInfeasibleError{
			Reason: fmt.Sprintf("weight bounds cannot sum to 1 (min sum %.4f, max sum %.4f)", sumMin, sumMax),
		}
	}
	return nil
}

// validateCovariance rejects asymmetric or indefinite covariance matrices
// before they reach the solver.
func validateCovariance(cov [][]float64) error {
	n := len(cov)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(cov[i]) != n {
			return fmt.Errorf("covariance matrix is not square")
		}
		for j := i; j < n; j++ {
			if math.Abs(cov[i][j]-cov[j][i]) > 1e-8 {
				return OptimizationInfeasibleError{Reason: "covariance matrix is not symmetric"}
			}
			sym.SetSym(i, j, (cov[i][j]+cov[j][i])/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return OptimizationInfeasibleError{Reason: "covariance matrix eigendecomposition failed"}
	}
	values := eig.Values(nil)
	if len(values) > 0 && values[0] < -1e-8 {
		return OptimizationInfeasibleError{Reason: "covariance matrix is not positive semi-definite"}
	}
	return nil
}

// extremeReturn computes the lowest or highest portfolio return reachable
// under the bounds when weights sum to 1. Every asset starts at its minimum
// and the spare budget is assigned greedily in return order.
func extremeReturn(mu []float64, bounds Bounds, maximize bool) float64 {
	n := len(mu)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if maximize {
			return mu[order[a]] > mu[order[b]]
		}
		return mu[order[a]] < mu[order[b]]
	})

	budget := 1.0
	total := 0.0
	for i := 0; i < n; i++ {
		total += mu[i] * bounds.Min[i]
		budget -= bounds.Min[i]
	}
	for _, i := range order {
		if budget <= 0 {
			break
		}
		extra := math.Min(budget, bounds.Max[i]-bounds.Min[i])
		total += mu[i] * extra
		budget -= extra
	}
	return total
}
