package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"mabletask/companion/database"
	"mabletask/companion/models"
)

// ChatStore persists conversation turns in the ClickHouse chat_messages
// table.
type ChatStore struct {
	DB *database.ClickHouseClient
}

func NewChatStore(chClient *database.ClickHouseClient) *ChatStore {
	return &ChatStore{DB: chClient}
}

// InsertMessages appends messages in one batch.
func (s *ChatStore) InsertMessages(ctx context.Context, messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO chat_messages (
			message_id, session_id, user_id, role, content, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, m := range messages {
		err := batch.Append(
			m.MessageID,
			m.SessionID,
			m.UserID,
			m.Role,
			m.Content,
			m.Timestamp,
		)
		if err != nil {
			slog.Error("error appending chat message to batch", "message_id", m.MessageID, "error", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	slog.Debug("inserted chat messages", "count", len(messages))
	return nil
}

// GetHistory returns the newest limit messages of a session owned by
// userID, oldest first. A limit of 0 returns the whole session.
func (s *ChatStore) GetHistory(ctx context.Context, sessionID, userID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT message_id, session_id, user_id, role, content, timestamp
		FROM chat_messages
		WHERE session_id = ? AND user_id = ?
		ORDER BY timestamp DESC
	`
	args := []any{sessionID, userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.SessionID, &m.UserID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			slog.Error("error scanning chat message", "error", err)
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat history: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
