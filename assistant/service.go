package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mabletask/companion/models"
	"mabletask/companion/visibility"
)

// History stores and replays conversation turns.
type History interface {
	InsertMessages(ctx context.Context, messages []models.ChatMessage) error
	GetHistory(ctx context.Context, sessionID, userID string, limit int) ([]models.ChatMessage, error)
}

// PreferencesReader loads a user's shopping preferences.
type PreferencesReader interface {
	Get(ctx context.Context, userID int) (*models.Preferences, error)
}

// Service answers chat messages.
type Service struct {
	responder    Responder
	history      History
	preferences  PreferencesReader
	historyTurns int
	now          func() time.Time
	logger       *slog.Logger
}

func NewService(r Responder, h History, p PreferencesReader, historyTurns int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		responder:    r,
		history:      h,
		preferences:  p,
		historyTurns: historyTurns,
		now:          time.Now,
		logger:       logger,
	}
}

// Reply answers req for userID. snap is the page context, if any. Failing
// to read preferences or history, or to store the turns, is logged and does
// not fail the reply.
func (s *Service) Reply(ctx context.Context, userID int, req models.ChatRequest, snap *visibility.Snapshot) (*models.ChatResponse, error) {
	uid := strconv.Itoa(userID)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := s.logger.With("user_id", userID, "chat_session", sessionID)

	prefs, err := s.preferences.Get(ctx, userID)
	if err != nil {
		log.Warn("chat: preferences unavailable", "error", err)
	}

	pageContext := ""
	visibleCount := 0
	if snap != nil {
		pageContext = FormatSnapshot(*snap)
		visibleCount = len(snap.VisibleProducts)
	}

	messages := []Message{{Role: "system", Content: BuildSystemPrompt(prefs, pageContext)}}
	if req.SessionID != "" && s.historyTurns > 0 {
		past, err := s.history.GetHistory(ctx, sessionID, uid, s.historyTurns)
		if err != nil {
			log.Warn("chat: history unavailable", "error", err)
		}
		for _, m := range past {
			messages = append(messages, Message{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, Message{Role: models.RoleUser, Content: req.Message})

	raw, err := s.responder.Respond(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("assistant reply: %w", err)
	}
	filters := ExtractFilters(raw)
	reply := StripFilters(raw)

	now := s.now().UTC()
	turns := []models.ChatMessage{
		{MessageID: uuid.NewString(), SessionID: sessionID, UserID: uid, Role: models.RoleUser, Content: req.Message, Timestamp: now},
		{MessageID: uuid.NewString(), SessionID: sessionID, UserID: uid, Role: models.RoleAssistant, Content: reply, Timestamp: now.Add(time.Millisecond)},
	}
	if err := s.history.InsertMessages(ctx, turns); err != nil {
		log.Error("chat: failed to store messages", "error", err)
	}

	log.Info("chat: replied", "visible", visibleCount, "filters", filters != nil)
	return &models.ChatResponse{
		Response:     reply,
		SessionID:    sessionID,
		Timestamp:    now,
		Filters:      filters,
		VisibleCount: visibleCount,
	}, nil
}

// History returns the stored messages of one of userID's sessions.
func (s *Service) History(ctx context.Context, userID int, sessionID string) ([]models.ChatMessage, error) {
	return s.history.GetHistory(ctx, sessionID, strconv.Itoa(userID), 0)
}
