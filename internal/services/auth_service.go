// Package services – AuthService
//
// This file implements the AuthService, which manages account signup and
// login. Passwords are hashed with bcrypt before storage; the same phone
// number may register once per user type (customer and agent accounts are
// independent). Service-level errors (e.g. ErrDuplicatePhone,
// ErrInvalidCredentials) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/reprice/go-reprice-backend/internal/auth"
	"github.com/reprice/go-reprice-backend/internal/domain"
	"github.com/reprice/go-reprice-backend/internal/repo"
)

// minPasswordLen is the shortest accepted signup password.
const minPasswordLen = 6

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new account row.
	CreateUser(ctx context.Context, db *gorm.DB, name, phone, passwordHash, userType string) (*domain.User, error)

	// GetUserByPhone fetches an account by phone within a user type.
	GetUserByPhone(ctx context.Context, db *gorm.DB, phone, userType string) (*domain.User, error)

	// GetUser fetches an account by ID.
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
}

// gormUserRepo adapts the repo package's free functions to UserRepo.
type gormUserRepo struct{}

func (gormUserRepo) CreateUser(ctx context.Context, db *gorm.DB, name, phone, passwordHash, userType string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, phone, passwordHash, userType)
}

func (gormUserRepo) GetUserByPhone(ctx context.Context, db *gorm.DB, phone, userType string) (*domain.User, error) {
	return repo.GetUserByPhone(ctx, db, phone, userType)
}

func (gormUserRepo) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// AuthService provides signup, login, and profile lookup. It owns password
// hashing and delegates token signing to the configured TokenIssuer.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Tokens signs bearer tokens for authenticated users.
	Tokens *auth.TokenIssuer

	// BcryptCost controls the hashing work factor.
	BcryptCost int
}

// NewAuthService constructs an AuthService backed by the repo package.
func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		DB:         db,
		Repo:       gormUserRepo{},
		Tokens:     tokens,
		BcryptCost: bcryptCost,
	}
}

// Signup registers a new account and returns the user with a signed token.
//
// Validation:
//   - name and phone must be non-blank after trimming.
//   - password must be at least minPasswordLen characters.
//   - userType must be "customer" or "agent".
//
// A phone number already registered for the same user type yields
// ErrDuplicatePhone; the same phone under the other user type is allowed.
func (s *AuthService) Signup(ctx context.Context, name, phone, password, userType string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	phone = normalizePhone(phone)
	if name == "" || phone == "" {
		return nil, "", ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return nil, "", ErrWeakPassword
	}
	if !validUserType(userType) {
		return nil, "", ErrInvalidUserType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, name, phone, string(hash), userType)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, "", ErrDuplicatePhone
		}
		return nil, "", err
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown phone and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, phone, password, userType string) (*domain.User, string, error) {
	phone = normalizePhone(phone)
	if phone == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}
	if !validUserType(userType) {
		return nil, "", ErrInvalidUserType
	}

	u, err := s.Repo.GetUserByPhone(ctx, s.DB, phone, userType)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile returns the account for the given user ID.
func (s *AuthService) Profile(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// normalizePhone trims surrounding whitespace. Phone numbers are otherwise
// stored as submitted.
func normalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// validUserType reports whether t names a known user type.
func validUserType(t string) bool {
	return t == domain.UserTypeCustomer || t == domain.UserTypeAgent
}
