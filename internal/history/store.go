// Package history provides the local price store and time-series utilities.
// Adjusted daily closes are the source of truth for all downstream
// computation; once synced for a (symbol, date) they are never mutated, only
// replaced wholesale by a re-sync.
package history

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantcase/frontier/internal/database"
)

// Schema is the DDL for the price store.
const Schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol    TEXT NOT NULL,
	date      TEXT NOT NULL,
	adj_close REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);
`

// DailyPrice represents one adjusted-close observation
type DailyPrice struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	AdjClose float64 `json:"adj_close"`
}

// Store provides access to historical price data
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new price store accessor
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}
}

// ReplaceHistory replaces all stored prices for a symbol with the given
// series. Replacement is transactional so a failed sync never leaves a
// partially written series behind.
func (s *Store) ReplaceHistory(symbol string, prices []DailyPrice) error {
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM daily_prices WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to clear prices for %s: %w", symbol, err)
		}

		stmt, err := tx.Prepare(`INSERT INTO daily_prices (symbol, date, adj_close) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			if _, err := stmt.Exec(symbol, p.Date, p.AdjClose); err != nil {
				return fmt.Errorf("failed to insert price %s %s: %w", symbol, p.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("observations", len(prices)).
		Msg("Replaced price history")

	return nil
}

// GetPrices fetches stored prices for a symbol within [startDate, endDate],
// ordered by date ascending.
func (s *Store) GetPrices(symbol, startDate, endDate string) ([]DailyPrice, error) {
	rows, err := s.db.Query(`
		SELECT date, adj_close
		FROM daily_prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Date, &p.AdjClose); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// GetSeries fetches a symbol's stored prices as a Series
func (s *Store) GetSeries(symbol, startDate, endDate string) (Series, error) {
	prices, err := s.GetPrices(symbol, startDate, endDate)
	if err != nil {
		return Series{}, err
	}

	series := Series{
		Symbol: symbol,
		Dates:  make([]string, len(prices)),
		Closes: make([]float64, len(prices)),
	}
	for i, p := range prices {
		series.Dates[i] = p.Date
		series.Closes[i] = p.AdjClose
	}
	return series, nil
}

// CountObservations returns the number of stored prices for a symbol
func (s *Store) CountObservations(symbol string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_prices WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prices for %s: %w", symbol, err)
	}
	return count, nil
}

// Symbols returns all symbols present in the store, sorted
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}
