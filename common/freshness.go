// Package common provides shared utilities for tsetmc-go
package common

import "time"

// Freshness TTLs for cached data components
const (
	FreshnessHistory   = 1 * time.Hour        // daily bars gain at most one row per day
	FreshnessIndex     = 1 * time.Hour        // index series, same cadence as history
	FreshnessStockList = 7 * 24 * time.Hour   // listings change rarely
	FreshnessIntraday  = 365 * 24 * time.Hour // past sessions never change
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
