package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mentei-messaging/internal/models"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/services"
)

// PresenceHandler reports another user's presence.
type PresenceHandler struct {
	users    repositories.UserRepository
	presence *services.PresenceTracker
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(users repositories.UserRepository, presence *services.PresenceTracker) *PresenceHandler {
	return &PresenceHandler{users: users, presence: presence}
}

// Status returns the user's online flag and last seen timestamp. In-memory
// connection counts win over the persisted flag while the process lives.
func (h *PresenceHandler) Status(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, models.PresenceStatus{
		UserID:   user.ID,
		IsOnline: h.presence.Online(user.ID) || user.IsOnline,
		LastSeen: user.LastSeen,
	})
}
