// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides a small durable key/value store on top
// of the cache_entries table. It backs persisted phone-search results and
// the pricing client's resolved-endpoint flags, so both survive restarts.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

// KVStore exposes Get/Set/Delete over cache_entries. The zero value is not
// usable; construct with NewKVStore.
type KVStore struct {
	db *gorm.DB
}

// NewKVStore returns a KVStore backed by db.
func NewKVStore(db *gorm.DB) *KVStore { return &KVStore{db: db} }

// Get returns the value for key. Expired entries read as missing; the row is
// left in place for DeleteExpired to sweep.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool) {
	var rec domain.CacheEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if err != nil {
		return "", false
	}
	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(time.Now().UTC()) {
		return "", false
	}
	return rec.Value, true
}

// Set upserts key with value. A ttl of zero stores the entry without expiry.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	rec := domain.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		exp := time.Now().UTC().Add(ttl)
		rec.ExpiresAt = &exp
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// DeleteExpired removes every entry whose expiry has passed and returns the
// number of rows swept.
func (s *KVStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Delete(&domain.CacheEntry{}, "expires_at IS NOT NULL AND expires_at <= ?", now.UTC())
	return res.RowsAffected, res.Error
}
