package repo

import (
	"context"
	"testing"
	"time"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

func TestOrdersStats(t *testing.T) {
	db := newRepoDB(t, &domain.Address{}, &domain.Order{})
	ctx := context.Background()

	// No rows yet.
	count, maxTS, err := OrdersStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("OrdersStats empty: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("empty stats: count=%d maxTS=%v", count, maxTS)
	}

	addr, err := CreateAddress(ctx, db, "u1", domain.Address{Line1: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"})
	if err != nil {
		t.Fatalf("CreateAddress: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := CreateOrder(ctx, db, "u1", domain.Order{
			PhoneModel:  "Apple iPhone 13 4GB RAM / 128GB",
			QuotedPrice: 32000,
			PickupSlot:  "10:00-12:00",
			AddressID:   addr.ID,
		}); err != nil {
			t.Fatalf("CreateOrder %d: %v", i, err)
		}
	}
	// A different user's orders must not leak into the stats.
	if _, err := CreateOrder(ctx, db, "u2", domain.Order{
		PhoneModel:  "Apple iPhone 12 4GB RAM / 64GB",
		QuotedPrice: 20000,
		PickupSlot:  "12:00-14:00",
		AddressID:   addr.ID,
	}); err != nil {
		t.Fatalf("CreateOrder other user: %v", err)
	}

	count, maxTS, err = OrdersStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("OrdersStats: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if maxTS == nil {
		t.Fatal("expected a max timestamp")
	}
	if maxTS.After(time.Now().Add(time.Minute)) {
		t.Fatalf("max timestamp in the future: %v", maxTS)
	}
}
