package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/services"
)

type PointsHandler struct {
	ledger *services.Ledger
}

func NewPointsHandler(ledger *services.Ledger) *PointsHandler {
	return &PointsHandler{ledger: ledger}
}

// Standing returns the caller's balance and badge.
func (h *PointsHandler) Standing(c *gin.Context) {
	s, err := h.ledger.Standing(c.Request.Context(), actor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *PointsHandler) History(c *gin.Context) {
	list, err := h.ledger.History(c.Request.Context(), actor(c).UserID, pageSize(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": list})
}
