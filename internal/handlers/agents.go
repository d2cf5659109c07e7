package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/database"
	"premium-homes/internal/models"
)

// AgentHandler serves /api/agents.
type AgentHandler struct {
	store  database.Store
	logger *zap.Logger
}

func NewAgentHandler(store database.Store, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{store: store, logger: logger}
}

// List always answers with an array, even when the store fails.
func (h *AgentHandler) List(c *gin.Context) {
	agents, err := h.store.ListAgents(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch agents", zap.Error(err))
		agents = []models.Agent{}
	}
	c.JSON(http.StatusOK, agents)
}

func (h *AgentHandler) Get(c *gin.Context) {
	agent, err := h.store.GetAgent(c.Request.Context(), c.Param("id"))
	if notFound(c, err, "Agent not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch agent")
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *AgentHandler) Create(c *gin.Context) {
	var a models.Agent
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email are required"})
		return
	}
	created, err := h.store.CreateAgent(c.Request.Context(), &a)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create agent")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *AgentHandler) Update(c *gin.Context) {
	if !canModify(currentClaims(c), c.Param("id")) {
		forbidOwner(c, "You can only modify your own profile")
		return
	}
	var a models.Agent
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.store.UpdateAgent(c.Request.Context(), c.Param("id"), &a)
	if notFound(c, err, "Agent not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to update agent")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AgentHandler) Delete(c *gin.Context) {
	if !canModify(currentClaims(c), c.Param("id")) {
		forbidOwner(c, "You can only modify your own profile")
		return
	}
	err := h.store.DeleteAgent(c.Request.Context(), c.Param("id"))
	if notFound(c, err, "Agent not found") {
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Failed to delete agent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agent deleted successfully"})
}
