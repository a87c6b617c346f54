// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A signup colliding with an existing (phone, user_type) pair returns
//     ErrDuplicate, translated from the database unique violation.
//   - On other DB errors (connectivity issues, etc.), the raw gorm error
//     is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a new User row. The user ID is a randomly generated UUID
// (string), and CreatedAt is set to UTC.
//
// The (phone, user_type) pair must be unique; a collision returns ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, name, phone, passwordHash, userType string) (*domain.User, error) {
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Phone:        phone,
		PasswordHash: passwordHash,
		UserType:     userType,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUserByPhone fetches a user by phone number and user type. If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetUserByPhone(ctx context.Context, db *gorm.DB, phone, userType string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("phone = ? AND user_type = ?", phone, userType).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
