package handler

import (
	"net/http"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
)

type ClaimHandler struct {
	workflow *workflow.Service
}

func NewClaimHandler(wf *workflow.Service) *ClaimHandler {
	return &ClaimHandler{workflow: wf}
}

type CreateClaimRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// Create initiates a claim on an approved item by the authenticated user.
func (h *ClaimHandler) Create(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
		return
	}

	claim, err := h.workflow.Claim(c.Request.Context(), req.ItemID, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, claim)
}

type FounderConfirmRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// FounderConfirm records the founder's confirmation on the newest open
// claim for their item.
func (h *ClaimHandler) FounderConfirm(c *gin.Context) {
	var req FounderConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
		return
	}

	claim, err := h.workflow.ConfirmByFounder(c.Request.Context(), req.ItemID, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, claim)
}

// ClaimerConfirm records the claimer's confirmation on their own claim.
func (h *ClaimHandler) ClaimerConfirm(c *gin.Context) {
	claim, err := h.workflow.ConfirmByClaimer(c.Request.Context(), c.Param("claimId"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, claim)
}
