// Package cache provides a SQLite-backed TTL cache for expensive
// calculation results, serialized with msgpack.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Schema is the cache database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS calc_cache (
	cache_key  TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calc_cache_expires ON calc_cache(expires_at);
`

// Cache TTLs per result category.
const (
	TTLStatistics = 24 * time.Hour
	TTLRiskModel  = 24 * time.Hour
	TTLFrontier   = 6 * time.Hour
)

// Cache stores serialized calculation results with an expiry.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// New creates a cache on the given connection. The schema must already be
// applied (database.Config.Schema).
func New(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

func cacheKey(category, key string) string {
	return category + ":" + key
}

// Get loads a cached value into out. It reports false when the key is
// missing, expired, or fails to decode.
func (c *Cache) Get(category, key string, out interface{}) bool {
	var payload []byte
	err := c.db.QueryRow(
		`SELECT payload FROM calc_cache WHERE cache_key = ? AND expires_at > ?`,
		cacheKey(category, key), time.Now().Unix(),
	).Scan(&payload)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Warn().Err(err).Str("category", category).Msg("Cache lookup failed")
		}
		return false
	}

	if err := msgpack.Unmarshal(payload, out); err != nil {
		c.log.Warn().Err(err).Str("category", category).Msg("Failed to decode cached payload")
		return false
	}

	c.log.Debug().Str("category", category).Str("key", key).Msg("Cache hit")
	return true
}

// Set stores a value under category/key with the given TTL, replacing any
// previous entry.
func (c *Cache) Set(category, key string, value interface{}, ttl time.Duration) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO calc_cache (cache_key, category, payload, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			category = excluded.category,
			payload = excluded.payload,
			expires_at = excluded.expires_at`,
		cacheKey(category, key), category, payload, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (c *Cache) Delete(category, key string) error {
	_, err := c.db.Exec(`DELETE FROM calc_cache WHERE cache_key = ?`, cacheKey(category, key))
	return err
}

// Purge removes all expired entries and returns how many were deleted.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM calc_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.log.Debug().Int64("deleted", n).Msg("Purged expired cache entries")
	}
	return n, nil
}
