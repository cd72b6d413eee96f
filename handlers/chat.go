package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"tidybook/middleware"
	"tidybook/models"
	"tidybook/services/chat"
	"tidybook/services/events"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the visitor chat endpoints.
type ChatHandler struct {
	Svc *chat.Service
	Hub *events.Hub
}

func NewChatHandler(svc *chat.Service, hub *events.Hub) *ChatHandler {
	return &ChatHandler{Svc: svc, Hub: hub}
}

// HandleChat is POST /api/chat.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.GetHeader("User-Agent")
	}

	resp, terr := h.Svc.ProcessTurn(c.Request.Context(), &req, middleware.ClientIP(c))
	if terr != nil {
		c.JSON(terr.Status, gin.H{"error": terr.Code, "message": terr.Message})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleStream is GET /api/chat/stream/:conversationId, an SSE feed of the
// conversation's new messages.
func (h *ChatHandler) HandleStream(c *gin.Context) {
	conversationID := c.Param("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId required"})
		return
	}

	events, unsubscribe := h.Hub.Subscribe()
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			if event.ConversationID != conversationID {
				return true
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return true
			}
			c.SSEvent(event.Type, string(payload))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
