// Phone search HTTP handlers.
//
// This file exposes the device lookup endpoint:
//   - GET /phones/search?q=
//
// Search results come from the resolver's layered cache (memory, persisted,
// remote with local catalog fallback); the handler only shapes the response,
// grouping raw listings into models with their variant options.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/catalog"
	"github.com/reprice/go-reprice-backend/internal/phones"
)

// PhoneModel is one device in a search response: a brand/model pair with its
// purchasable variants.
type PhoneModel struct {
	Brand    string                 `json:"brand"`
	Model    string                 `json:"model"`
	Image    string                 `json:"image,omitempty"`
	Variants []phones.VariantOption `json:"variants"`
}

// SearchPhonesResponse wraps the device results for a query.
type SearchPhonesResponse struct {
	Query   string       `json:"query"`
	Results []PhoneModel `json:"results"`
}

// SearchPhones godoc
// @ID          searchPhones
// @Summary     Search devices
// @Description Returns matching phone models with their variant options for a free-text query.
// @Tags        Phones
// @Produce     json
//
// @Param       q  query  string  true  "Search query"  example(iphone 13 pro)
//
// @Success     200  {object}  handlers.SearchPhonesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Failure     500  {object}  handlers.ErrorResponse  "Search failed"
// @Router      /phones/search [get]
func (h *Handlers) SearchPhones(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}

	listings, err := h.phones.Resolve(c.Request.Context(), query)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, SearchPhonesResponse{
		Query:   query,
		Results: groupListings(listings),
	})
}

// groupListings folds raw listings into models, preserving result order and
// attaching deduplicated variant options per model.
func groupListings(listings []catalog.Listing) []PhoneModel {
	type slot struct {
		index int
		model PhoneModel
	}
	seen := make(map[string]*slot)
	var order []*slot

	for _, l := range listings {
		k := catalog.NormalizeText(l.Brand + " " + l.Model)
		s, dup := seen[k]
		if !dup {
			s = &slot{index: len(order), model: PhoneModel{Brand: l.Brand, Model: l.Model}}
			seen[k] = s
			order = append(order, s)
		}
		if s.model.Image == "" && l.Image != "" {
			s.model.Image = l.Image
		}
	}

	out := make([]PhoneModel, 0, len(order))
	for _, s := range order {
		s.model.Variants = phones.VariantOptions(listings, s.model.Brand, s.model.Model)
		out = append(out, s.model)
	}
	return out
}
