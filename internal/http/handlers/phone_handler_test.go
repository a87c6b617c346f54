package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/catalog"
)

type fakeResolver struct {
	listings []catalog.Listing
	err      error
	gotQuery string
}

func (f *fakeResolver) Resolve(_ context.Context, query string) ([]catalog.Listing, error) {
	f.gotQuery = query
	return f.listings, f.err
}

func newPhoneRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/phones/search", h.SearchPhones)
	return r
}

func TestSearchPhones_GroupsModelsWithVariants(t *testing.T) {
	res := &fakeResolver{listings: []catalog.Listing{
		{Brand: "Apple", Model: "iPhone 13", Variant: "4/128", Price: 35000, Image: "a.png"},
		{Brand: "Apple", Model: "iPhone 13", Variant: "4/256", Price: 39000},
		{Brand: "Apple", Model: "iPhone 13 Pro", Variant: "6/128", Price: 52000},
	}}
	r := newPhoneRouter(New(nil, res, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/phones/search?q=iphone+13", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if res.gotQuery != "iphone 13" {
		t.Fatalf("resolver saw %q", res.gotQuery)
	}

	var resp SearchPhonesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 models, got %+v", resp.Results)
	}
	first := resp.Results[0]
	if first.Model != "iPhone 13" || first.Image != "a.png" || len(first.Variants) != 2 {
		t.Fatalf("unexpected first model: %+v", first)
	}
	if resp.Results[1].Model != "iPhone 13 Pro" || len(resp.Results[1].Variants) != 1 {
		t.Fatalf("unexpected second model: %+v", resp.Results[1])
	}
}

func TestSearchPhones_MissingQuery(t *testing.T) {
	r := newPhoneRouter(New(nil, &fakeResolver{}, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/phones/search?q=++", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSearchPhones_ResolverError(t *testing.T) {
	r := newPhoneRouter(New(nil, &fakeResolver{err: errors.New("boom")}, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/phones/search?q=x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeSearchFailed {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestSearchPhones_EmptyResults(t *testing.T) {
	r := newPhoneRouter(New(nil, &fakeResolver{}, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/phones/search?q=nomatch", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp SearchPhonesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %+v", resp.Results)
	}
}
