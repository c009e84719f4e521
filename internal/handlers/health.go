package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger is the part of the store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	driver string
}

func NewHealthHandler(store Pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": h.driver})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": h.driver})
}
