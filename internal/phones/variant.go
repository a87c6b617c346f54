package phones

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reprice/go-reprice-backend/internal/catalog"
)

// VariantOption is a selectable RAM/storage configuration derived from a
// listing. Selection is keyed by the lowercase raw variant label.
type VariantOption struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	RawLabel  string `json:"raw_label"`
	RAMGB     int    `json:"ram_gb,omitempty"`
	StorageGB int    `json:"storage_gb,omitempty"`
	Price     int    `json:"price"`
}

// ParseVariant extracts RAM and storage (GB) from a raw variant label such as
// "6/128", "8GB/256GB" or "128GB". A single number reads as storage only.
// Unparseable labels return (0, 0).
func ParseVariant(raw string) (ramGB, storageGB int) {
	norm := catalog.NormalizeText(strings.ReplaceAll(strings.ToLower(raw), "gb", ""))
	parts := strings.Fields(norm)

	var nums []int
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			nums = append(nums, n)
		}
	}
	switch len(nums) {
	case 0:
		return 0, 0
	case 1:
		return 0, nums[0]
	default:
		return nums[0], nums[1]
	}
}

// FormatVariant compacts a raw variant label to "<ram>GB/<storage>GB" (or
// "<storage>GB") form. Placeholder labels such as "N/A" and blanks collapse to
// the empty string; labels that do not parse pass through trimmed.
func FormatVariant(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "n/a") || strings.EqualFold(trimmed, "na") {
		return ""
	}
	ram, storage := ParseVariant(trimmed)
	switch {
	case ram > 0 && storage > 0:
		return fmt.Sprintf("%dGB/%dGB", ram, storage)
	case storage > 0:
		return fmt.Sprintf("%dGB", storage)
	default:
		return trimmed
	}
}

// VariantLabel renders a variant for display: "<ram>GB RAM / <storage>GB"
// when both parse, "<storage>GB" when only storage parses, otherwise the raw
// label verbatim.
func VariantLabel(raw string) string {
	ram, storage := ParseVariant(raw)
	switch {
	case ram > 0 && storage > 0:
		return fmt.Sprintf("%dGB RAM / %dGB", ram, storage)
	case storage > 0:
		return fmt.Sprintf("%dGB", storage)
	default:
		return raw
	}
}

// VariantOptions derives the selectable options for one brand/model from a
// result set, deduplicating by lowercase raw label (first listing wins) and
// ordering by RAM, then storage, then price.
func VariantOptions(listings []catalog.Listing, brand, model string) []VariantOption {
	wantBrand := catalog.NormalizeText(brand)
	wantModel := catalog.NormalizeText(model)

	seen := make(map[string]struct{}, len(listings))
	out := make([]VariantOption, 0, len(listings))
	for _, l := range listings {
		if FormatVariant(l.Variant) == "" {
			continue
		}
		if catalog.NormalizeText(l.Brand) != wantBrand || catalog.NormalizeText(l.Model) != wantModel {
			continue
		}
		key := strings.ToLower(l.Variant)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ram, storage := ParseVariant(l.Variant)
		out = append(out, VariantOption{
			Key:       key,
			Label:     VariantLabel(l.Variant),
			RawLabel:  l.Variant,
			RAMGB:     ram,
			StorageGB: storage,
			Price:     l.Price,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RAMGB != out[j].RAMGB {
			return out[i].RAMGB < out[j].RAMGB
		}
		if out[i].StorageGB != out[j].StorageGB {
			return out[i].StorageGB < out[j].StorageGB
		}
		return out[i].Price < out[j].Price
	})
	return out
}
