package controllers

import (
	"errors"
	"net/http"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses. Sync failures
// never show up here: local mutations succeed regardless of the remote.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "A request for this pair is already outstanding"})
	case apperrors.IsInvariant(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
