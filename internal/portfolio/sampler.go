package portfolio

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Sampled is one randomly generated portfolio from the simulation cloud.
// Weights follow the symbol order handed to Sample.
type Sampled struct {
	Return     float64   `json:"return"`
	Volatility float64   `json:"volatility"`
	Sharpe     float64   `json:"sharpe"`
	Weights    []float64 `json:"weights"`
}

// Sampler generates random fully-invested long-only portfolios.
type Sampler struct {
	rng      *rand.Rand
	riskFree float64
	log      zerolog.Logger
}

// NewSampler creates a sampler. A zero seed derives one from the clock;
// any other value makes the sample sequence reproducible.
func NewSampler(seed int64, riskFree float64, log zerolog.Logger) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		rng:      rand.New(rand.NewSource(seed)),
		riskFree: riskFree,
		log:      log.With().Str("component", "sampler").Logger(),
	}
}

// Sample draws count random portfolios over the risk model's assets. Each
// weight vector is drawn uniformly and normalized to sum to 1, then scored
// against the annualized means and covariance.
func (s *Sampler) Sample(model *RiskModel, count int) ([]Sampled, error) {
	n := len(model.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no assets to sample")
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid sample count: %d", count)
	}
	if len(model.Means) != n || len(model.Covariance) != n {
		return nil, fmt.Errorf("risk model dimensions do not match %d symbols", n)
	}

	results := make([]Sampled, count)
	for k := 0; k < count; k++ {
		weights := s.randomWeights(n)
		ret, vol := Evaluate(weights, model.Means, model.Covariance)
		sharpe := 0.0
		if vol > 0 {
			sharpe = (ret - s.riskFree) / vol
		}
		results[k] = Sampled{
			Return:     ret,
			Volatility: vol,
			Sharpe:     sharpe,
			Weights:    weights,
		}
	}

	s.log.Debug().
		Int("count", count).
		Int("num_assets", n).
		Msg("Generated random portfolios")

	return results, nil
}

// randomWeights draws uniform weights and normalizes them onto the simplex.
// A degenerate all-zero draw falls back to equal weights.
func (s *Sampler) randomWeights(n int) []float64 {
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		weights[i] = s.rng.Float64()
		sum += weights[i]
	}
	if sum == 0 {
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// Evaluate computes the annualized return and volatility of a weight vector
// against annualized means and covariance.
func Evaluate(weights, means []float64, cov [][]float64) (ret, vol float64) {
	for i, w := range weights {
		ret += w * means[i]
	}
	variance := 0.0
	for i, wi := range weights {
		for j, wj := range weights {
			variance += wi * wj * cov[i][j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	vol = math.Sqrt(variance)
	return ret, vol
}
