package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateUser_SuccessAndDuplicate(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "Asha", "9000000001", "hash", domain.UserTypeCustomer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Phone != "9000000001" || u.UserType != domain.UserTypeCustomer {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Same phone, different type: allowed.
	if _, err := CreateUser(ctx, db, "Asha A", "9000000001", "hash", domain.UserTypeAgent); err != nil {
		t.Fatalf("CreateUser same phone as agent: %v", err)
	}

	// Same phone, same type: ErrDuplicate.
	if _, err := CreateUser(ctx, db, "Imposter", "9000000001", "hash", domain.UserTypeCustomer); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByPhone(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	seeded, err := CreateUser(ctx, db, "Ravi", "9000000002", "hash", domain.UserTypeAgent)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetUserByPhone(ctx, db, "9000000002", domain.UserTypeAgent)
	if err != nil {
		t.Fatalf("GetUserByPhone: %v", err)
	}
	if got.ID != seeded.ID || got.Name != "Ravi" {
		t.Fatalf("unexpected user: %+v", got)
	}

	// Same phone but the other user type must not match.
	if _, err := GetUserByPhone(ctx, db, "9000000002", domain.UserTypeCustomer); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other type, got %v", err)
	}
}

func TestGetUser_Missing(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	if _, err := GetUser(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
