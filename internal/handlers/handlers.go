// Package handlers exposes the REST API over gin.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
	"premium-homes/internal/search"
)

// Indexer is the part of the search client used by the handlers.
// A nil Indexer means full-text search is not configured.
type Indexer interface {
	IndexProperties(properties []models.Property) error
	DeleteProperty(id int) error
	Reindex(properties []models.Property) error
	FilterSearch(c search.Criteria, limit int64) ([]models.Property, error)
}

// respondError maps sentinel errors to status codes. Unknown errors are
// logged and answered with fallback as the message.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := fallback
	switch {
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, errs.Message(err)
	case errors.Is(err, errs.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, errs.Message(err)
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		status, msg = http.StatusConflict, errs.Message(err)
	case errors.Is(err, errs.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, errs.Message(err)
	default:
		logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": msg})
}

// notFound answers 404 with msg when err is errs.ErrNotFound.
func notFound(c *gin.Context, err error, msg string) bool {
	if !errors.Is(err, errs.ErrNotFound) {
		return false
	}
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
	return true
}

func propertyID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return 0, false
	}
	return id, true
}
