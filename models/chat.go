package models

import (
	"time"

	"mabletask/companion/visibility"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one stored conversation turn.
type ChatMessage struct {
	MessageID string    `json:"messageId"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatRequest struct {
	Message           string               `json:"message" binding:"required"`
	SessionID         string               `json:"session_id"`
	ViewportSessionID string               `json:"viewport_session_id"`
	DOMSnapshot       *visibility.Snapshot `json:"dom_snapshot"`
}

type ChatResponse struct {
	Response     string         `json:"response"`
	SessionID    string         `json:"session_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Filters      *ProductFilter `json:"filters,omitempty"`
	VisibleCount int            `json:"visible_count"`
}

type ChatHistory struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}
