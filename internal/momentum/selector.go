// Package momentum selects the reduced ticker set used for optimization.
//
// The heuristic combines short-term persistence (recent winners keep winning)
// with long-term reversal (long-run losers revert): the best performers by
// 6-month annualized return and the worst performers by 5-year annualized
// return, deduplicated. How many of each is a configured policy, not a
// constant.
package momentum

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantcase/frontier/internal/config"
	"github.com/quantcase/frontier/internal/stats"
)

// Selector ranks tickers and applies the selection policy
type Selector struct {
	policy config.SelectionPolicy
	log    zerolog.Logger
}

// NewSelector creates a new momentum selector
func NewSelector(policy config.SelectionPolicy, log zerolog.Logger) *Selector {
	return &Selector{
		policy: policy,
		log:    log.With().Str("component", "momentum").Logger(),
	}
}

// Selection describes the outcome of a selection run
type Selection struct {
	Symbols        []string `json:"symbols"`          // Deduplicated union, sorted
	TopRecent      []string `json:"top_recent"`       // Picked for short-term persistence
	BottomLongTerm []string `json:"bottom_long_term"` // Picked for long-term reversal
}

// Select applies the policy to the 6-month and 5-year statistics.
// Both maps must cover the same universe. Ties are broken by symbol
// ascending, so the result is deterministic for a fixed input.
func (s *Selector) Select(recent, longTerm map[string]stats.Summary) (Selection, error) {
	if len(recent) == 0 || len(longTerm) == 0 {
		return Selection{}, fmt.Errorf("empty statistics for selection")
	}
	if len(recent) != len(longTerm) {
		return Selection{}, fmt.Errorf("window universes differ: %d tickers at 6m, %d at 5y", len(recent), len(longTerm))
	}
	for symbol := range recent {
		if _, ok := longTerm[symbol]; !ok {
			return Selection{}, fmt.Errorf("symbol %s missing from 5y statistics", symbol)
		}
	}

	topRecent := rank(recent, s.policy.TopRecent, func(a, b stats.Summary) bool {
		if a.GeometricReturn != b.GeometricReturn {
			return a.GeometricReturn > b.GeometricReturn // best first
		}
		return a.Symbol < b.Symbol
	})

	bottomLongTerm := rank(longTerm, s.policy.BottomLongTerm, func(a, b stats.Summary) bool {
		if a.GeometricReturn != b.GeometricReturn {
			return a.GeometricReturn < b.GeometricReturn // worst first
		}
		return a.Symbol < b.Symbol
	})

	// Deduplicated union, sorted for stable downstream ordering
	seen := make(map[string]bool)
	var union []string
	for _, symbol := range append(append([]string{}, topRecent...), bottomLongTerm...) {
		if !seen[symbol] {
			seen[symbol] = true
			union = append(union, symbol)
		}
	}
	sort.Strings(union)

	s.log.Info().
		Strs("top_recent", topRecent).
		Strs("bottom_long_term", bottomLongTerm).
		Int("selected", len(union)).
		Msg("Selected tickers")

	return Selection{
		Symbols:        union,
		TopRecent:      topRecent,
		BottomLongTerm: bottomLongTerm,
	}, nil
}

// rank sorts the summaries with the given ordering and returns the first n
// symbols.
func rank(summaries map[string]stats.Summary, n int, less func(a, b stats.Summary) bool) []string {
	ordered := make([]stats.Summary, 0, len(summaries))
	for _, summary := range summaries {
		ordered = append(ordered, summary)
	}
	sort.Slice(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	if n > len(ordered) {
		n = len(ordered)
	}
	symbols := make([]string, n)
	for i := 0; i < n; i++ {
		symbols[i] = ordered[i].Symbol
	}
	return symbols
}
