package search

import (
	"sort"
	"strings"

	"premium-homes/internal/models"
)

// Featured returns the listings flagged as featured, in input order.
func Featured(listings []models.Property) []models.Property {
	out := []models.Property{}
	for _, p := range listings {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// ByPropertyType returns listings of the given type; "all" returns everything.
func ByPropertyType(listings []models.Property, propertyType string) []models.Property {
	c := DefaultCriteria()
	c.PropertyType = propertyType
	return Filter(listings, c)
}

// ByTransactionType returns listings of the given transaction type; "all" returns everything.
func ByTransactionType(listings []models.Property, transactionType string) []models.Property {
	c := DefaultCriteria()
	c.TransactionType = transactionType
	return Filter(listings, c)
}

// Cities lists the distinct cities found in listing locations, sorted
// case-insensitively. The first spelling seen wins.
func Cities(listings []models.Property) []string {
	seen := make(map[string]bool)
	cities := []string{}
	for i := range listings {
		city := listings[i].City()
		key := strings.ToLower(city)
		if city == "" || seen[key] {
			continue
		}
		seen[key] = true
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		return strings.ToLower(cities[i]) < strings.ToLower(cities[j])
	})
	return cities
}
