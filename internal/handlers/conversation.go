package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/services"
)

type ConversationHandler struct {
	messaging *services.Messaging
}

func NewConversationHandler(m *services.Messaging) *ConversationHandler {
	return &ConversationHandler{messaging: m}
}

type startConversationRequest struct {
	PostID      string `json:"postID" binding:"required"`
	RecipientID string `json:"recipientID"`
}

type messageRequest struct {
	Body string `json:"body"`
}

// Start opens (or reopens) the conversation about a post.
func (h *ConversationHandler) Start(c *gin.Context) {
	var req startConversationRequest
	if !bindJSON(c, &req) {
		return
	}
	conv, err := h.messaging.StartConversation(c.Request.Context(), actor(c), req.PostID, req.RecipientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	list, err := h.messaging.ListConversations(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	list, err := h.messaging.Messages(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *ConversationHandler) Send(c *gin.Context) {
	var req messageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.messaging.Send(c.Request.Context(), actor(c), c.Param("id"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) Read(c *gin.Context) {
	n, err := h.messaging.MarkRead(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
