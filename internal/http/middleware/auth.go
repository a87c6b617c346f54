// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides RequireAuth, the bearer-token gate for protected routes.
// It validates the Authorization header against a token parser and stores the
// caller's identity in the Gin context for downstream handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/auth"
)

// TokenParser validates a bearer token and returns its claims.
// *auth.TokenIssuer satisfies this interface.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequireAuth returns a Gin middleware that enforces bearer-token auth.
//
// Behavior:
//   - Expects Authorization: Bearer <token> (scheme is case-insensitive).
//   - On success, stores "userID" (token subject) and "userType" in the Gin
//     context and proceeds.
//   - On a missing or malformed header, or an invalid/expired token, aborts
//     with 401 and the standard JSON error envelope.
//
// Place this after RequestID() and Logger() so rejections carry the
// correlation ID and appear in access logs with the right level.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("userType", claims.UserType)
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header value.
// Returns "" when the header is absent or not a Bearer credential.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// unauthorized aborts the request with a 401 and the standard error body.
func unauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
