package handler

import (
	"net/http"
	"strconv"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler is the moderation gateway: a privileged subset of the
// workflow's transitions plus aggregate reporting.
type AdminHandler struct {
	db       *gorm.DB
	workflow *workflow.Service
}

func NewAdminHandler(db *gorm.DB, wf *workflow.Service) *AdminHandler {
	return &AdminHandler{db: db, workflow: wf}
}

// Approve flips a pending report to available.
func (h *AdminHandler) Approve(c *gin.Context) {
	item, err := h.workflow.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Reject removes a pending report after notifying its founder.
func (h *AdminHandler) Reject(c *gin.Context) {
	if err := h.workflow.Reject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report rejected"})
}

// Reunite promotes a fully-confirmed claim to the terminal reunited state.
func (h *AdminHandler) Reunite(c *gin.Context) {
	item, err := h.workflow.Reunite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete hard-deletes an approved item.
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.workflow.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

// Reembed recomputes one item's stored embedding.
func (h *AdminHandler) Reembed(c *gin.Context) {
	item, err := h.workflow.Reembed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type AnalyticsStats struct {
	TotalItems        int64            `json:"totalItems"`
	PendingItems      int64            `json:"pendingItems"`
	ApprovedItems     int64            `json:"approvedItems"`
	ClaimPendingItems int64            `json:"claimPendingItems"`
	ReunitedItems     int64            `json:"reunitedItems"`
	OpenClaims        int64            `json:"openClaims"`
	CompletedClaims   int64            `json:"completedClaims"`
	ItemsByCategory   map[string]int64 `json:"itemsByCategory"`
	TopFounders       []FounderCount   `json:"topFounders"`
}

type FounderCount struct {
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// Analytics returns the moderation dashboard counts.
func (h *AdminHandler) Analytics(c *gin.Context) {
	var stats AnalyticsStats

	h.db.Model(&model.Item{}).Count(&stats.TotalItems)
	h.db.Model(&model.Item{}).Where("is_approved = ?", false).Count(&stats.PendingItems)
	h.db.Model(&model.Item{}).Where("is_approved = ?", true).Count(&stats.ApprovedItems)
	h.db.Model(&model.Item{}).Where("status = ?", model.StatusClaimPending).Count(&stats.ClaimPendingItems)
	h.db.Model(&model.Item{}).Where("reunited = ?", true).Count(&stats.ReunitedItems)

	h.db.Model(&model.ClaimRequest{}).Where("admin_approved = ?", false).Count(&stats.OpenClaims)
	h.db.Model(&model.ClaimRequest{}).Where("admin_approved = ?", true).Count(&stats.CompletedClaims)

	stats.ItemsByCategory = make(map[string]int64)
	type categoryCount struct {
		Category string
		Count    int64
	}
	var categoryCounts []categoryCount
	h.db.Model(&model.Item{}).
		Select("category, count(*) as count").
		Group("category").
		Scan(&categoryCounts)
	for _, cc := range categoryCounts {
		stats.ItemsByCategory[cc.Category] = cc.Count
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	h.db.Model(&model.User{}).
		Select("name, points").
		Order("points DESC").
		Limit(limit).
		Scan(&stats.TopFounders)

	c.JSON(http.StatusOK, stats)
}
