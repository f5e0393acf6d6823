// Package query derives the visible list of listings from the loaded set.
// Everything here is pure: inputs are never modified and nothing is cached.
package query

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

type SortKey string

const (
	SortNone        SortKey = "none"
	SortNameAsc     SortKey = "name_asc"
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
	SortCategoryAsc SortKey = "category_asc"
)

// SortKeys lists the accepted keys in display order.
var SortKeys = []SortKey{SortNone, SortNameAsc, SortPriceAsc, SortPriceDesc, SortCategoryAsc}

// ParseSortKey maps user input to a SortKey. Empty input means SortNone.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNone, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Filters narrows the view. Empty fields do not filter.
type Filters struct {
	// Category is matched case-insensitively against the whole category.
	Category string
	// Location is matched case-insensitively as a substring.
	Location string
}

func (f Filters) match(l *models.Listing) bool {
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(strings.TrimSpace(l.Category), c) {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" &&
		!strings.Contains(strings.ToLower(l.Location), strings.ToLower(loc)) {
		return false
	}
	return true
}

// DeriveView filters records and then orders them by key. The sort is
// stable, so equal elements keep their input order and SortNone (or an
// unknown key) keeps the input order entirely. The result is a new slice.
func DeriveView(records []models.Listing, f Filters, key SortKey) []models.Listing {
	view := make([]models.Listing, 0, len(records))
	for i := range records {
		if f.match(&records[i]) {
			view = append(view, records[i])
		}
	}

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(view, func(a, b models.Listing) int {
			return comparePrice(a.PricePerDay, b.PricePerDay)
		})
	case SortPriceDesc:
		slices.SortStableFunc(view, func(a, b models.Listing) int {
			return comparePrice(b.PricePerDay, a.PricePerDay)
		})
	case SortNameAsc:
		// Collators keep internal buffers; one per call keeps DeriveView reentrant.
		c := collate.New(language.English)
		slices.SortStableFunc(view, func(a, b models.Listing) int {
			return c.CompareString(a.Name, b.Name)
		})
	case SortCategoryAsc:
		c := collate.New(language.English)
		slices.SortStableFunc(view, func(a, b models.Listing) int {
			return c.CompareString(a.Category, b.Category)
		})
	}

	return view
}

func comparePrice(a, b models.Price) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
