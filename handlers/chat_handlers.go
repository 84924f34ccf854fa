package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mabletask/companion/middleware"
	"mabletask/companion/models"
	"mabletask/companion/store"
	"mabletask/companion/visibility"
)

// ChatService is implemented by assistant.Service.
type ChatService interface {
	Reply(ctx context.Context, userID int, req models.ChatRequest, snap *visibility.Snapshot) (*models.ChatResponse, error)
	History(ctx context.Context, userID int, sessionID string) ([]models.ChatMessage, error)
}

type ChatHandlers struct {
	Service  ChatService
	Sessions *store.ViewportStore
	Timeout  time.Duration
}

func NewChatHandlers(svc ChatService, sessions *store.ViewportStore) *ChatHandlers {
	return &ChatHandlers{Service: svc, Sessions: sessions, Timeout: 60 * time.Second}
}

// Chat answers a message. The page context is captured from the viewport
// session when one is named, otherwise the client's dom_snapshot is used.
func (h *ChatHandlers) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required", "details": err.Error()})
		return
	}
	userID := middleware.UserID(c)

	snap := req.DOMSnapshot
	if req.ViewportSessionID != "" {
		sess, err := h.Sessions.Get(req.ViewportSessionID, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Viewport session not found"})
			return
		}
		captured, err := sess.Snapshot()
		if err != nil {
			sessionError(c, err)
			return
		}
		snap = &captured
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	resp, err := h.Service.Reply(ctx, userID, req, snap)
	if err != nil {
		slog.Error("chat: reply failed", "user_id", userID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error processing chat"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandlers) History(c *gin.Context) {
	sessionID := c.Param("sessionId")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	msgs, err := h.Service.History(ctx, middleware.UserID(c), sessionID)
	if err != nil {
		slog.Error("chat: history failed", "chat_session", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat history"})
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, models.ChatHistory{SessionID: sessionID, Messages: msgs})
}
