// Package auth issues and verifies the signed bearer tokens used by the API.
//
// Tokens are HMAC-signed JWTs carrying the user's ID, phone number, and user
// type. Verification is strict: only the HS256 signing method is accepted and
// expired or malformed tokens are rejected with ErrInvalidToken so handlers
// can map every failure mode to a single 401 response.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reprice/go-reprice-backend/internal/domain"
)

// ErrInvalidToken is returned for any token that fails verification,
// regardless of the underlying cause.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload attached to every issued token.
type Claims struct {
	// Phone is the user's registered phone number.
	Phone string `json:"phone"`
	// UserType distinguishes customers from delivery agents.
	UserType string `json:"user_type"`

	jwt.RegisteredClaims
}

// TokenIssuer signs and parses bearer tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. ttl bounds the lifetime of every
// issued token.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given user. The user ID becomes the JWT
// subject.
func (t *TokenIssuer) Issue(u *domain.User) (string, error) {
	now := t.now()
	claims := Claims{
		Phone:    u.Phone,
		UserType: u.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the token signature and expiry and returns its claims.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
