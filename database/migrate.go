package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		hashed_password BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY,
		is_b2b BOOLEAN NOT NULL DEFAULT FALSE,
		preferred_categories TEXT[] NOT NULL DEFAULT '{}',
		hidden_categories TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

const chatMessagesTable = `CREATE TABLE IF NOT EXISTS chat_messages (
	message_id String,
	session_id String,
	user_id String,
	role LowCardinality(String),
	content String,
	timestamp DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (session_id, timestamp)`

// Migrate creates the Postgres tables if they do not exist.
func (c *DBClient) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migration: %w", err)
		}
	}
	return nil
}

// Migrate creates the chat_messages table if it does not exist.
func (c *ClickHouseClient) Migrate(ctx context.Context) error {
	if err := c.Conn.Exec(ctx, chatMessagesTable); err != nil {
		return fmt.Errorf("clickhouse migration: %w", err)
	}
	return nil
}
