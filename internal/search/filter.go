package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"premium-homes/internal/models"
)

// All disables a selector.
const All = "all"

// Criteria is the set of user-selected search, filter and sort parameters.
type Criteria struct {
	SearchQuery     string   `json:"searchQuery"`
	PropertyType    string   `json:"propertyType"`
	TransactionType string   `json:"transactionType"`
	City            string   `json:"city"`
	MinPrice        *float64 `json:"minPrice,omitempty"`
	MaxPrice        *float64 `json:"maxPrice,omitempty"`
	Bedrooms        string   `json:"bedrooms"`
	ApartmentType   string   `json:"apartmentType"`
	SortBy          SortBy   `json:"sortBy"`
}

// DefaultCriteria returns the reset state: every selector "all", no bounds, newest first.
func DefaultCriteria() Criteria {
	return Criteria{
		PropertyType:    All,
		TransactionType: All,
		City:            All,
		Bedrooms:        All,
		ApartmentType:   All,
		SortBy:          SortNewest,
	}
}

// CriteriaFromQuery reads criteria from URL query parameters. Unknown or
// malformed values fall back to the defaults.
func CriteriaFromQuery(q url.Values) Criteria {
	c := DefaultCriteria()
	c.SearchQuery = q.Get("q")
	if v := q.Get("search"); v != "" {
		c.SearchQuery = v
	}
	if v := q.Get("propertyType"); v != "" {
		c.PropertyType = v
	}
	if v := q.Get("transactionType"); v != "" {
		c.TransactionType = v
	}
	if v := q.Get("city"); v != "" {
		c.City = v
	}
	if v := q.Get("bedrooms"); v != "" {
		c.Bedrooms = v
	}
	if v := q.Get("apartmentType"); v != "" {
		c.ApartmentType = v
	}
	if v := q.Get("sortBy"); v != "" {
		c.SortBy = SortBy(v)
	}
	c.MinPrice = parsePrice(q.Get("minPrice"))
	c.MaxPrice = parsePrice(q.Get("maxPrice"))
	return c
}

// Values encodes the active parts of c as query parameters understood by
// CriteriaFromQuery.
func (c Criteria) Values() url.Values {
	q := url.Values{}
	if c.SearchQuery != "" {
		q.Set("q", c.SearchQuery)
	}
	set := func(key, v string) {
		if active(v) {
			q.Set(key, v)
		}
	}
	set("propertyType", c.PropertyType)
	set("transactionType", c.TransactionType)
	set("city", c.City)
	set("bedrooms", c.Bedrooms)
	set("apartmentType", c.ApartmentType)
	if c.SortBy != "" && c.SortBy != SortNewest {
		q.Set("sortBy", string(c.SortBy))
	}
	if c.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*c.MinPrice, 'f', -1, 64))
	}
	if c.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*c.MaxPrice, 'f', -1, 64))
	}
	return q
}

func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsDefault reports whether no predicate is active.
func (c Criteria) IsDefault() bool {
	return c.SearchQuery == "" &&
		!active(c.PropertyType) &&
		!active(c.TransactionType) &&
		!active(c.City) &&
		c.MinPrice == nil && c.MaxPrice == nil &&
		bedroomCount(c.Bedrooms) < 0 &&
		apartmentBedrooms(c) < 0
}

// Filter returns copies of the listings that pass every active predicate in
// c, in input order. The input slice is not modified.
func Filter(listings []models.Property, c Criteria) []models.Property {
	out := make([]models.Property, 0, len(listings))
	for i := range listings {
		if Matches(&listings[i], c) {
			out = append(out, listings[i].Clone())
		}
	}
	return out
}

// Matches applies the predicates of c to a single listing.
func Matches(p *models.Property, c Criteria) bool {
	if c.SearchQuery != "" {
		q := strings.ToLower(c.SearchQuery)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Location), q) &&
			!strings.Contains(strings.ToLower(p.Address), q) {
			return false
		}
	}

	if active(c.PropertyType) && string(p.PropertyType) != c.PropertyType {
		return false
	}
	if active(c.TransactionType) && string(p.TransactionType) != c.TransactionType {
		return false
	}
	if active(c.City) && !strings.EqualFold(p.City(), strings.TrimSpace(c.City)) {
		return false
	}

	if c.MinPrice != nil && p.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && p.Price > *c.MaxPrice {
		return false
	}

	if n := bedroomCount(c.Bedrooms); n >= 0 && p.Bedrooms != n {
		return false
	}
	if n := apartmentBedrooms(c); n >= 0 && p.Bedrooms != n {
		return false
	}
	return true
}

func active(selector string) bool {
	return selector != "" && selector != All
}

// bedroomCount returns -1 when the selector is inactive or not a number.
func bedroomCount(selector string) int {
	if !active(selector) {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(selector))
	if err != nil {
		return -1
	}
	return n
}

// apartmentBedrooms maps a subtype label like "2+1" to its bedroom count.
// Only meaningful when the property type filter is exactly apartment.
func apartmentBedrooms(c Criteria) int {
	if c.PropertyType != string(models.PropertyTypeApartment) || !active(c.ApartmentType) {
		return -1
	}
	prefix, _, _ := strings.Cut(c.ApartmentType, "+")
	return bedroomCount(prefix)
}
