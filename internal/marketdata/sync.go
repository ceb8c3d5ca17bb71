package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcase/frontier/internal/history"
)

// Syncer downloads price history and replaces the stored series.
type Syncer struct {
	client *Client
	store  *history.Store
	log    zerolog.Logger
}

// NewSyncer creates a syncer writing through to the price store.
func NewSyncer(client *Client, store *history.Store, log zerolog.Logger) *Syncer {
	return &Syncer{
		client: client,
		store:  store,
		log:    log.With().Str("component", "sync").Logger(),
	}
}

// Sync fetches and stores daily prices for every symbol, returning the
// number of rows stored per symbol. It fails on the first symbol that
// cannot be fetched: a partially synced universe would silently skew the
// downstream statistics.
func (s *Syncer) Sync(ctx context.Context, symbols []string, start, end time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(symbols))

	for _, symbol := range symbols {
		prices, err := s.client.GetHistoricalPrices(ctx, symbol, start, end)
		if err != nil {
			return counts, fmt.Errorf("failed to sync %s: %w", symbol, err)
		}

		rows := make([]history.DailyPrice, len(prices))
		for i, p := range prices {
			rows[i] = history.DailyPrice{
				Date:     p.Date.Format("2006-01-02"),
				AdjClose: p.AdjClose,
			}
		}

		if err := s.store.ReplaceHistory(symbol, rows); err != nil {
			return counts, fmt.Errorf("failed to store history for %s: %w", symbol, err)
		}
		counts[symbol] = len(rows)

		s.log.Debug().
			Str("symbol", symbol).
			Int("rows", len(rows)).
			Msg("Synced symbol")
	}

	s.log.Info().
		Int("symbols", len(symbols)).
		Msg("Price sync complete")

	return counts, nil
}
