package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mabletask/companion/models"
)

// PreferencesStore keeps one row of shopping preferences per user.
type PreferencesStore struct {
	db *sql.DB
}

func NewPreferencesStore(db *sql.DB) *PreferencesStore {
	return &PreferencesStore{db: db}
}

// Get returns the saved preferences, or the defaults when the user never
// saved any.
func (s *PreferencesStore) Get(ctx context.Context, userID int) (*models.Preferences, error) {
	p := &models.Preferences{UserID: userID}
	query := `
		SELECT is_b2b, preferred_categories, hidden_categories, updated_at
		FROM user_preferences
		WHERE user_id = $1;
	`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.IsB2B,
		pq.Array(&p.PreferredCategories),
		pq.Array(&p.HiddenCategories),
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultPreferences(userID), nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	normalize(p)
	return p, nil
}

// Upsert writes the user's preferences and returns the stored row.
func (s *PreferencesStore) Upsert(ctx context.Context, userID int, req models.PreferencesRequest) (*models.Preferences, error) {
	p := &models.Preferences{
		UserID:              userID,
		IsB2B:               req.IsB2B,
		PreferredCategories: req.PreferredCategories,
		HiddenCategories:    req.HiddenCategories,
	}
	normalize(p)
	query := `
		INSERT INTO user_preferences (user_id, is_b2b, preferred_categories, hidden_categories, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			is_b2b = EXCLUDED.is_b2b,
			preferred_categories = EXCLUDED.preferred_categories,
			hidden_categories = EXCLUDED.hidden_categories,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at;
	`
	err := s.db.QueryRowContext(ctx, query,
		userID,
		p.IsB2B,
		pq.Array(p.PreferredCategories),
		pq.Array(p.HiddenCategories),
	).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return p, nil
}

func normalize(p *models.Preferences) {
	if p.PreferredCategories == nil {
		p.PreferredCategories = []string{}
	}
	if p.HiddenCategories == nil {
		p.HiddenCategories = []string{}
	}
}
