package utils

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateSessionID returns a URL-safe random identifier for viewport
// sessions.
func GenerateSessionID() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate random bytes for session id", "error", err)
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
