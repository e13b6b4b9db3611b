package handlers

import (
	"net/http"
	"strconv"

	"studyhub/internal/database"
	"studyhub/internal/models"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true filters to unread only.
func ListNotifications(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	query := db.Where("recipient_username = ?", username)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	limit, offset := pagination(c, 20, 100)

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch notifications", err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// UnreadNotificationCount returns the caller's unread badge count
func UnreadNotificationCount(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var count int64
	if err := database.GetDB().Model(&models.Notification{}).
		Where("recipient_username = ? AND read = ?", username, false).
		Count(&count).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to count notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkNotificationRead marks one of the caller's notifications as read
func MarkNotificationRead(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid notification id", err)
		return
	}

	result := database.GetDB().Model(&models.Notification{}).
		Where("id = ? AND recipient_username = ?", uint(id), username).
		Update("read", true)
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update notification", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// MarkAllNotificationsRead clears the caller's unread notifications
func MarkAllNotificationsRead(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	result := database.GetDB().Model(&models.Notification{}).
		Where("recipient_username = ? AND read = ?", username, false).
		Update("read", true)
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update notifications", result.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}
