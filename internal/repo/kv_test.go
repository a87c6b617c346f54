package repo

import (
	"context"
	"testing"
	"time"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

func TestKVStore_SetGetOverwrite(t *testing.T) {
	db := newRepoDB(t, &domain.CacheEntry{})
	kv := NewKVStore(db)
	ctx := context.Background()

	if _, ok := kv.Get(ctx, "missing"); ok {
		t.Fatalf("missing key should read as absent")
	}

	if err := kv.Set(ctx, "k", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := kv.Get(ctx, "k"); !ok || v != "v1" {
		t.Fatalf("Get = %q, %v; want v1, true", v, ok)
	}

	// Overwrite via upsert.
	if err := kv.Set(ctx, "k", "v2", time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, ok := kv.Get(ctx, "k"); !ok || v != "v2" {
		t.Fatalf("Get after overwrite = %q, %v; want v2, true", v, ok)
	}
}

func TestKVStore_ExpiryAndSweep(t *testing.T) {
	db := newRepoDB(t, &domain.CacheEntry{})
	kv := NewKVStore(db)
	ctx := context.Background()

	// Seed one already-expired entry directly.
	past := time.Now().UTC().Add(-time.Minute)
	if err := db.Create(&domain.CacheEntry{Key: "old", Value: "x", ExpiresAt: &past}).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if err := kv.Set(ctx, "fresh", "y", time.Hour); err != nil {
		t.Fatalf("Set fresh: %v", err)
	}
	if err := kv.Set(ctx, "durable", "z", 0); err != nil {
		t.Fatalf("Set durable: %v", err)
	}

	// Expired entries read as missing even before the sweep.
	if _, ok := kv.Get(ctx, "old"); ok {
		t.Fatalf("expired entry should read as absent")
	}

	n, err := kv.DeleteExpired(ctx, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired = %d, %v; want 1, nil", n, err)
	}
	if v, ok := kv.Get(ctx, "fresh"); !ok || v != "y" {
		t.Fatalf("fresh entry should survive the sweep")
	}
	if v, ok := kv.Get(ctx, "durable"); !ok || v != "z" {
		t.Fatalf("no-expiry entry should survive the sweep")
	}
}

func TestKVStore_Delete(t *testing.T) {
	db := newRepoDB(t, &domain.CacheEntry{})
	kv := NewKVStore(db)
	ctx := context.Background()

	if err := kv.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := kv.Get(ctx, "k"); ok {
		t.Fatalf("deleted key should read as absent")
	}
	// Deleting again is not an error.
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}
