package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/services"
)

type AnalyticsHandler struct {
	analytics *services.Analytics
}

func NewAnalyticsHandler(a *services.Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a}
}

func (h *AnalyticsHandler) Me(c *gin.Context) {
	s, err := h.analytics.UserSummary(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *AnalyticsHandler) Materials(c *gin.Context) {
	totals, err := h.analytics.MaterialTotals(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": totals})
}
