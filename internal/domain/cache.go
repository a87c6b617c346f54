package domain

import "time"

// CacheEntry is a persisted key/value record with an optional expiry. It backs
// search-result caching and the small durable flags the pricing client keeps
// (resolved base URL, per-endpoint support markers).
type CacheEntry struct {
	Key       string     `gorm:"type:TEXT NOT NULL;primaryKey"`
	Value     string     `gorm:"type:TEXT NOT NULL"`
	ExpiresAt *time.Time `gorm:"type:DATETIME;index"`
	CreatedAt time.Time  `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"type:DATETIME NOT NULL;autoUpdateTime"`
}

// TableName implements the GORM tabler interface.
func (CacheEntry) TableName() string { return "cache_entries" }
