package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/auth"
	"github.com/reprice/go-reprice-backend/internal/domain"
)

func newAuthTestRouter(t *testing.T, parser TokenParser) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", RequireAuth(parser), func(c *gin.Context) {
		uid, _ := c.Get("userID")
		utype, _ := c.Get("userType")
		c.JSON(http.StatusOK, gin.H{
			"user_id":   uid,
			"user_type": utype,
		})
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ti := auth.NewTokenIssuer("test-secret", time.Hour)
	tok, err := ti.Issue(&domain.User{ID: "u-1", Phone: "9876543210", UserType: "customer"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := newAuthTestRouter(t, ti)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["user_id"] != "u-1" {
		t.Fatalf("user_id = %q, want u-1", body["user_id"])
	}
	if body["user_type"] != "customer" {
		t.Fatalf("user_type = %q, want customer", body["user_type"])
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	ti := auth.NewTokenIssuer("test-secret", time.Hour)
	other := auth.NewTokenIssuer("other-secret", time.Hour)
	tok, err := other.Issue(&domain.User{ID: "u-2", Phone: "9876543210", UserType: "agent"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "bare bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + tok},
	}
	r := newAuthTestRouter(t, ti)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["code"] != "unauthorized" {
				t.Fatalf("code = %q, want unauthorized", body["code"])
			}
			if body["request_id"] == "" {
				t.Fatal("expected request_id in error body")
			}
			if got := w.Header().Get("WWW-Authenticate"); got == "" {
				t.Fatal("expected WWW-Authenticate header")
			}
		})
	}
}

func TestBearerToken_Extraction(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Bearer", ""},
		{"Bearer ", ""},
		{"Token abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.in); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
