package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/services"
)

type NotificationHandler struct {
	notifications *services.Notifications
}

func NewNotificationHandler(n *services.Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// List returns the newest notifications first. ?unread=true hides read ones.
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.notifications.List(ctx, actor(c), c.Query("unread") == "true", pageSize(c))
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(ctx, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unreadCount": unread})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
