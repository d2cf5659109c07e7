package search

import (
	"cmp"
	"slices"

	"premium-homes/internal/models"
)

// SortBy names an ordering strategy.
type SortBy string

const (
	SortNewest    SortBy = "newest"
	SortPriceLow  SortBy = "price-low"
	SortPriceHigh SortBy = "price-high"
)

// Sort returns copies of listings ordered by strategy. Unrecognized strategies
// sort newest first (descending id). Equal keys keep their relative order.
func Sort(listings []models.Property, strategy SortBy) []models.Property {
	sorted := make([]models.Property, len(listings))
	for i := range listings {
		sorted[i] = listings[i].Clone()
	}

	switch strategy {
	case SortPriceLow:
		slices.SortStableFunc(sorted, func(a, b models.Property) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(sorted, func(a, b models.Property) int {
			return cmp.Compare(b.Price, a.Price)
		})
	default:
		slices.SortStableFunc(sorted, func(a, b models.Property) int {
			return cmp.Compare(b.ID, a.ID)
		})
	}
	return sorted
}

// View is the filtered and sorted listing set shown to the user.
func View(listings []models.Property, c Criteria) []models.Property {
	return Sort(Filter(listings, c), c.SortBy)
}
