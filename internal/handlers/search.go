package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/database"
	"premium-homes/internal/search"
)

// SearchHandler serves /api/search.
type SearchHandler struct {
	store   database.Store
	indexer Indexer
	breaker *search.CircuitBreaker
	logger  *zap.Logger
}

// NewSearchHandler creates a search handler. breaker may be nil.
func NewSearchHandler(store database.Store, indexer Indexer, breaker *search.CircuitBreaker, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{store: store, indexer: indexer, breaker: breaker, logger: logger}
}

// Search runs the criteria through Meilisearch when it is configured and
// reachable, otherwise through search.View over the store.
func (h *SearchHandler) Search(c *gin.Context) {
	criteria := search.CriteriaFromQuery(c.Request.URL.Query())
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	if h.indexer != nil && criteria.SearchQuery != "" && (h.breaker == nil || h.breaker.CanProceed()) {
		properties, err := h.indexer.FilterSearch(criteria, limit)
		if err == nil {
			if h.breaker != nil {
				h.breaker.RecordSuccess()
			}
			c.JSON(http.StatusOK, properties)
			return
		}
		if h.breaker != nil {
			h.breaker.RecordFailure(err)
		}
		h.logger.Warn("meilisearch query failed, falling back to in-memory filter", zap.Error(err))
	}

	properties, err := h.store.ListProperties(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to search properties")
		return
	}
	view := search.View(properties, criteria)
	if int64(len(view)) > limit {
		view = view[:limit]
	}
	c.JSON(http.StatusOK, view)
}
