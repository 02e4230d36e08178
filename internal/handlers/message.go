package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mentei-messaging/internal/services"
	"mentei-messaging/internal/telemetry"
)

// MessageHandler exposes the HTTP send and history surface. It shares the
// router service with the websocket path so both obey the same rules.
type MessageHandler struct {
	router   *services.MessageRouter
	receipts *services.ReadReceipts
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler. The audit emitter may be nil.
func NewMessageHandler(router *services.MessageRouter, receipts *services.ReadReceipts, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{router: router, receipts: receipts, audit: audit}
}

// GlobalHistory returns global-room messages in delivery order.
func (h *MessageHandler) GlobalHistory(c *gin.Context) {
	limit, offset := pagination(c)
	msgs, err := h.router.GlobalHistory(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ConversationHistory returns the caller's private history with another user.
func (h *MessageHandler) ConversationHistory(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	limit, offset := pagination(c)
	msgs, err := h.router.ConversationHistory(c.Request.Context(), userID, peerID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostGlobal sends a message to the global room over HTTP.
func (h *MessageHandler) PostGlobal(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.router.SendGlobal(c.Request.Context(), c.GetInt("userID"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// PostPrivate sends a private message over HTTP.
func (h *MessageHandler) PostPrivate(c *gin.Context) {
	var req struct {
		ReceiverID int    `json:"receiver_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.router.SendPrivate(c.Request.Context(), c.GetInt("userID"), req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "message_private_sent",
		fmt.Sprintf("private message %d to user %d", msg.ID, req.ReceiverID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, msg)
}

// MarkRead stamps every unread message from the sender to the caller.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	senderID, err := strconv.Atoi(c.Param("sender_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender id"})
		return
	}

	rows, err := h.receipts.MarkRead(c.Request.Context(), c.GetInt("userID"), senderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows > 0 {
		h.audit.Emit(c.Request.Context(), "INFO", "messages_marked_read",
			fmt.Sprintf("%d messages from user %d marked read", rows, senderID),
			requestIDFromContext(c), userIDFromContext(c))
	}
	c.JSON(http.StatusOK, gin.H{"marked": rows})
}

// Unread reports the caller's unread totals.
func (h *MessageHandler) Unread(c *gin.Context) {
	userID := c.GetInt("userID")

	total, err := h.receipts.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	bySender, err := h.receipts.UnreadBySender(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "by_sender": bySender})
}
