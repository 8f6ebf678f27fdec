package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/apperr"
	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy to HTTP status codes in one place.
func respondError(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		upstream   *apperr.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Msg})
	case errors.As(err, &upstream):
		log.Printf("Upstream failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service unavailable"})
	default:
		log.Printf("Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// callerID returns the authenticated user id set by the auth middleware.
func callerID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// selfOrAdmin reports whether the caller may read data belonging to userID.
func selfOrAdmin(c *gin.Context, userID string) bool {
	if callerID(c) == userID {
		return true
	}
	admin, exists := c.Get("isAdmin")
	return exists && admin == true
}
