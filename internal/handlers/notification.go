package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentei-messaging/internal/repositories"
)

// NotificationHandler serves the caller's notification stream.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first, plus the unread count.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")
	limit, offset := pagination(c)

	list, err := h.notifications.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

// MarkAllRead flips every unread notification for the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	rows, err := h.notifications.MarkAllRead(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": rows})
}
