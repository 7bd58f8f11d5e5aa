package handlers

import (
	"net/http"

	"campus-queue-api/config"
	"campus-queue-api/middleware"
	"campus-queue-api/models"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's latest 50 notifications
func ListNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var notifications []models.Notification
	config.DB.Where("user_id = ?", userID).
		Order("created_at desc").Limit(50).
		Find(&notifications)
	c.JSON(http.StatusOK, gin.H{"count": len(notifications), "notifications": notifications})
}

// UnreadCount returns how many unread notifications the caller has
func UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var count int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count)
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks one of the caller's notifications as read
func MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	res := config.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("is_read", true)
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead marks every unread notification of the caller as read
func MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	res := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": res.RowsAffected})
}

// DeleteNotification removes one of the caller's notifications
func DeleteNotification(c *gin.Context) {
	userID := middleware.GetUserID(c)
	res := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Delete(&models.Notification{})
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

type CreateNotificationRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// AdminCreateNotification lets an admin push a message to any user's inbox
func AdminCreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target models.User
	if err := config.DB.First(&target, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
		return
	}

	notification := models.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}
	if err := config.DB.Create(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Notification created", "notification": notification})
}
