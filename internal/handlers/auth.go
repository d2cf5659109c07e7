package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/auth"
	"premium-homes/internal/models"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	service *auth.Service
	logger  *zap.Logger
}

func NewAuthHandler(service *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Internal server error")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Verify answers {valid, user} for a good token and 401 otherwise.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}
	resp, err := h.service.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
