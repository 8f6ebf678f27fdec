package handler

import (
	"net/http"
	"strconv"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := callerID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	var totalCount int64
	h.db.Model(&model.Notification{}).Where("recipient_id = ?", userID).Count(&totalCount)

	var notifications []model.Notification
	h.db.Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications)

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"data":       notifications,
		"page":       page,
		"limit":      limit,
		"totalCount": totalCount,
		"totalPages": totalPages,
	})
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := callerID(c)
	id := c.Param("id")

	res := h.db.Where("id = ? AND recipient_id = ?", id, userID).Delete(&model.Notification{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

// ClearAll removes every notification belonging to the caller.
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	userID := callerID(c)

	res := h.db.Where("recipient_id = ?", userID).Delete(&model.Notification{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": res.RowsAffected})
}
