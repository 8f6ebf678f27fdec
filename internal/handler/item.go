package handler

import (
	"net/http"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	workflow *workflow.Service
}

func NewItemHandler(wf *workflow.Service) *ItemHandler {
	return &ItemHandler{workflow: wf}
}

type CreateItemRequest struct {
	Description         string     `json:"description" binding:"required"`
	Category            string     `json:"category"`
	ImageURL            string     `json:"imageUrl"`
	LocationDescription string     `json:"locationDescription"`
	FoundAt             *time.Time `json:"foundAt" binding:"required"`
}

// Create reports a found item. The report starts unapproved and pending.
func (h *ItemHandler) Create(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description and foundAt are required"})
		return
	}

	item, err := h.workflow.Report(c.Request.Context(), callerID(c), workflow.ReportInput{
		Description:         req.Description,
		Category:            req.Category,
		ImageURL:            req.ImageURL,
		LocationDescription: req.LocationDescription,
		FoundAt:             *req.FoundAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListByFounder returns a founder's reports with their newest claim joined.
func (h *ItemHandler) ListByFounder(c *gin.Context) {
	founderID := c.Param("founderId")
	if !selfOrAdmin(c, founderID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's reports"})
		return
	}

	items, err := h.workflow.ItemsByFounder(c.Request.Context(), founderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListClaimed returns the items a user has claimed, with founder contact.
func (h *ItemHandler) ListClaimed(c *gin.Context) {
	userID := c.Param("userId")
	if !selfOrAdmin(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's claims"})
		return
	}

	claimed, err := h.workflow.ClaimedByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": claimed})
}
