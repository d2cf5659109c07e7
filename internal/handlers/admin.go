package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/cleanup"
	"premium-homes/internal/database"
	"premium-homes/internal/models"
	"premium-homes/internal/scheduler"
	"premium-homes/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          database.Store
	indexer        Indexer
	breaker        *search.CircuitBreaker
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	logger         *zap.Logger
}

// NewAdminHandler creates a new admin handler. indexer, breaker and sched may be nil.
func NewAdminHandler(store database.Store, indexer Indexer, breaker *search.CircuitBreaker, sched *scheduler.Scheduler, cleanupSvc *cleanup.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:          store,
		indexer:        indexer,
		breaker:        breaker,
		scheduler:      sched,
		cleanupService: cleanupSvc,
		logger:         logger,
	}
}

// PriceRange is one bucket of the price distribution
type PriceRange struct {
	RangeLabel string  `json:"range_label"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	Count      int     `json:"count"`
}

// Price buckets in EUR; rent and sale prices live on different scales.
var (
	saleRanges = []PriceRange{
		{RangeLabel: "< 50k", MinPrice: 0, MaxPrice: 50000},
		{RangeLabel: "50k-100k", MinPrice: 50000, MaxPrice: 100000},
		{RangeLabel: "100k-200k", MinPrice: 100000, MaxPrice: 200000},
		{RangeLabel: "200k-500k", MinPrice: 200000, MaxPrice: 500000},
		{RangeLabel: "500k+", MinPrice: 500000, MaxPrice: 1e12},
	}
	rentRanges = []PriceRange{
		{RangeLabel: "< 300", MinPrice: 0, MaxPrice: 300},
		{RangeLabel: "300-600", MinPrice: 300, MaxPrice: 600},
		{RangeLabel: "600-1000", MinPrice: 600, MaxPrice: 1000},
		{RangeLabel: "1000+", MinPrice: 1000, MaxPrice: 1e12},
	}
)

func distribution(properties []models.Property, ranges []PriceRange) []PriceRange {
	out := make([]PriceRange, len(ranges))
	copy(out, ranges)
	for _, p := range properties {
		for i := range out {
			if p.Price >= out[i].MinPrice && p.Price < out[i].MaxPrice {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// GetStats returns listing statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	properties, err := h.store.ListProperties(ctx)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load statistics")
		return
	}
	agents, err := h.store.ListAgents(ctx)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load statistics")
		return
	}

	byType := map[string]int{}
	byTransaction := map[string]int{}
	byCity := map[string]int{}
	for _, p := range properties {
		byType[string(p.PropertyType)]++
		byTransaction[string(p.TransactionType)]++
		if city := p.City(); city != "" {
			byCity[city]++
		}
	}

	stats := gin.H{
		"properties": gin.H{
			"total":          len(properties),
			"featured":       len(search.Featured(properties)),
			"by_type":        byType,
			"by_transaction": byTransaction,
			"by_city":        byCity,
		},
		"agents": gin.H{
			"total": len(agents),
		},
		"price_distribution": gin.H{
			"sale": distribution(search.ByTransactionType(properties, string(models.TransactionSale)), saleRanges),
			"rent": distribution(search.ByTransactionType(properties, string(models.TransactionRent)), rentRanges),
		},
		"search_enabled": h.indexer != nil,
	}
	if h.breaker != nil {
		stats["search_breaker"] = h.breaker.Status()
	}
	if h.scheduler != nil {
		stats["jobs"] = h.scheduler.Status()
	}
	c.JSON(http.StatusOK, stats)
}

// RunCleanup removes uploaded images nothing references
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		MinAgeHours      int   `json:"min_age_hours"`
		MaxDeletionCount int   `json:"max_deletion_count"`
		DryRun           *bool `json:"dry_run"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	config := cleanup.DefaultCleanupConfig()
	if req.MinAgeHours > 0 {
		config.MinAge = time.Duration(req.MinAgeHours) * time.Hour
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	// dry run unless explicitly disabled
	config.DryRun = req.DryRun == nil || *req.DryRun

	h.logger.Info("admin cleanup requested",
		zap.Duration("min_age", config.MinAge),
		zap.Int("max", config.MaxDeletionCount),
		zap.Bool("dry_run", config.DryRun),
	)

	result, err := h.cleanupService.PhysicallyDelete(c.Request.Context(), config)
	if err != nil {
		h.logger.Error("admin cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reindex rebuilds the search index in the background
func (h *AdminHandler) Reindex(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not configured"})
		return
	}
	properties, err := h.store.ListProperties(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load properties")
		return
	}

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.indexer.Reindex(properties); err != nil {
			h.logger.Error("reindex failed", zap.Error(err))
			return
		}
		h.logger.Info("reindex completed", zap.Int("documents", len(properties)))
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Reindex started",
		"count":   len(properties),
	})
}
