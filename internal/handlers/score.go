package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentei-messaging/internal/services"
)

// ScoreHandler exposes the caller's score and level.
type ScoreHandler struct {
	scores *services.ScoreService
}

// NewScoreHandler builds a ScoreHandler.
func NewScoreHandler(scores *services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// State returns the caller's cumulative score with the derived level fields.
func (h *ScoreHandler) State(c *gin.Context) {
	state, err := h.scores.State(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Award applies points for a social action to the caller.
func (h *ScoreHandler) Award(c *gin.Context) {
	var req struct {
		Points int `json:"points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.scores.Award(c.Request.Context(), c.GetInt("userID"), req.Points, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
