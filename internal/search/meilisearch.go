package search

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"premium-homes/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// searchableAttributes are the same fields Matches compares the query against.
var searchableAttributes = []string{"title", "location", "address"}

// SearchClient keeps a Meilisearch index of the listings for full-text search.
type SearchClient struct {
	client *meilisearch.Client
	index  string
}

// NewSearchClient creates a client for the "properties" index.
func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "properties",
	}
}

// document is the indexed shape: the listing plus its derived city.
type document struct {
	models.Property
	City string `json:"city"`
}

func toDocuments(properties []models.Property) []document {
	docs := make([]document, 0, len(properties))
	for i := range properties {
		docs = append(docs, document{Property: properties[i], City: properties[i].City()})
	}
	return docs
}

// InitIndex creates the index and configures searchable, filterable and sortable attributes.
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return fmt.Errorf("failed to create index: %w", err)
	}

	idx := s.client.Index(s.index)
	attrs := slices.Clone(searchableAttributes)
	if _, err := idx.UpdateSearchableAttributes(&attrs); err != nil {
		return fmt.Errorf("failed to set searchable attributes: %w", err)
	}

	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"propertyType",
		"transactionType",
		"city",
		"price",
		"bedrooms",
		"featured",
		"agentId",
	}); err != nil {
		return fmt.Errorf("failed to set filterable attributes: %w", err)
	}

	if _, err := idx.UpdateSortableAttributes(&[]string{
		"id",
		"price",
		"area",
	}); err != nil {
		return fmt.Errorf("failed to set sortable attributes: %w", err)
	}
	return nil
}

// IndexProperties adds or replaces documents for the given listings.
func (s *SearchClient) IndexProperties(properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(toDocuments(properties), "id")
	return err
}

// DeleteProperty removes one listing from the index.
func (s *SearchClient) DeleteProperty(id int) error {
	_, err := s.client.Index(s.index).DeleteDocument(strconv.Itoa(id))
	return err
}

// Reindex drops every document and indexes the given listings.
func (s *SearchClient) Reindex(properties []models.Property) error {
	if _, err := s.client.Index(s.index).DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return s.IndexProperties(properties)
}

// FilterSearch runs a full-text query with the criteria translated into a
// Meilisearch filter expression and sort.
func (s *SearchClient) FilterSearch(c Criteria, limit int64) ([]models.Property, error) {
	if limit == 0 {
		limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: limit,
		Sort:  []string{meiliSort(c.SortBy)},
	}
	if filter := MeiliFilter(c); filter != "" {
		searchReq.Filter = filter
	}

	searchRes, err := s.client.Index(s.index).Search(c.SearchQuery, searchReq)
	if err != nil {
		return nil, err
	}

	properties := make([]models.Property, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var property models.Property
		if err := json.Unmarshal(hitJSON, &property); err != nil {
			continue
		}
		properties = append(properties, property)
	}
	return properties, nil
}

// MeiliFilter builds the filter expression equivalent to the predicates of c
// other than the free-text query.
func MeiliFilter(c Criteria) string {
	var filters []string

	if active(c.PropertyType) {
		filters = append(filters, fmt.Sprintf("propertyType = %s", quote(c.PropertyType)))
	}
	if active(c.TransactionType) {
		filters = append(filters, fmt.Sprintf("transactionType = %s", quote(c.TransactionType)))
	}
	if active(c.City) {
		filters = append(filters, fmt.Sprintf("city = %s", quote(strings.TrimSpace(c.City))))
	}
	if c.MinPrice != nil && finite(*c.MinPrice) {
		filters = append(filters, "price >= "+strconv.FormatFloat(*c.MinPrice, 'f', -1, 64))
	}
	if c.MaxPrice != nil && finite(*c.MaxPrice) {
		filters = append(filters, "price <= "+strconv.FormatFloat(*c.MaxPrice, 'f', -1, 64))
	}
	if n := bedroomCount(c.Bedrooms); n >= 0 {
		filters = append(filters, fmt.Sprintf("bedrooms = %d", n))
	}
	if n := apartmentBedrooms(c); n >= 0 {
		filters = append(filters, fmt.Sprintf("bedrooms = %d", n))
	}

	return strings.Join(filters, " AND ")
}

func meiliSort(s SortBy) string {
	switch s {
	case SortPriceLow:
		return "price:asc"
	case SortPriceHigh:
		return "price:desc"
	default:
		return "id:desc"
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
