package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/database"
	"premium-homes/internal/models"
	"premium-homes/internal/search"
)

// PropertyHandler serves /api/properties.
type PropertyHandler struct {
	store   database.Store
	indexer Indexer
	logger  *zap.Logger
}

func NewPropertyHandler(store database.Store, indexer Indexer, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{store: store, indexer: indexer, logger: logger}
}

// List returns every listing in store order. Active search criteria or an
// explicit sortBy in the query string apply search.View.
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.store.ListProperties(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch properties")
		return
	}

	q := c.Request.URL.Query()
	crit := search.CriteriaFromQuery(q)
	if _, sorted := q["sortBy"]; sorted || !crit.IsDefault() {
		properties = search.View(properties, crit)
	}
	c.JSON(http.StatusOK, properties)
}

// Get returns one listing
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}
	property, err := h.store.GetProperty(c.Request.Context(), id)
	if notFound(c, err, "Property not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// Create stores a new listing. Agents creating a listing without an owner become its owner.
func (h *PropertyHandler) Create(c *gin.Context) {
	var p models.Property
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		respondError(c, h.logger, err, "Failed to create property")
		return
	}
	if claims := currentClaims(c); claims != nil && p.AgentID == "" {
		p.AgentID = claims.AgentID
	}

	created, err := h.store.CreateProperty(c.Request.Context(), &p)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create property")
		return
	}
	h.logger.Info("property created", zap.Int("id", created.ID), zap.String("title", created.Title))

	h.afterMutation(c.Request.Context(), created, 0)
	c.JSON(http.StatusCreated, created)
}

// Update replaces a listing; the id always comes from the path.
// Only an admin or the owning agent may change it.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}
	existing, ok := h.owned(c, id)
	if !ok {
		return
	}
	var p models.Property
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		respondError(c, h.logger, err, "Failed to update property")
		return
	}
	if claims := currentClaims(c); claims.Role != models.RoleAdmin {
		p.AgentID = existing.AgentID
	}

	updated, err := h.store.UpdateProperty(c.Request.Context(), id, &p)
	if notFound(c, err, "Property not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to update property")
		return
	}
	h.logger.Info("property updated", zap.Int("id", id))

	h.afterMutation(c.Request.Context(), updated, 0)
	c.JSON(http.StatusOK, updated)
}

// Delete removes a listing
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}
	if _, ok := h.owned(c, id); !ok {
		return
	}
	err := h.store.DeleteProperty(c.Request.Context(), id)
	if notFound(c, err, "Property not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to delete property")
		return
	}
	h.logger.Info("property deleted", zap.Int("id", id))

	h.afterMutation(c.Request.Context(), nil, id)
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}

// owned loads listing id and checks the caller may modify it. It writes the
// response and returns false when the request must stop.
func (h *PropertyHandler) owned(c *gin.Context, id int) (*models.Property, bool) {
	existing, err := h.store.GetProperty(c.Request.Context(), id)
	if notFound(c, err, "Property not found") {
		return nil, false
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch property")
		return nil, false
	}
	if !canModify(currentClaims(c), existing.AgentID) {
		forbidOwner(c, "You can only modify your own listings")
		return nil, false
	}
	return existing, true
}

// afterMutation keeps the search index and agent counters in step with the
// store. Failures are logged; the scheduler repairs both periodically.
func (h *PropertyHandler) afterMutation(ctx context.Context, saved *models.Property, deletedID int) {
	if h.indexer != nil {
		var err error
		if saved != nil {
			err = h.indexer.IndexProperties([]models.Property{*saved})
		} else {
			err = h.indexer.DeleteProperty(deletedID)
		}
		if err != nil {
			h.logger.Warn("failed to update search index", zap.Error(err))
		}
	}
	if _, err := database.RefreshAgentCounts(ctx, h.store); err != nil {
		h.logger.Warn("failed to refresh agent counts", zap.Error(err))
	}
}
