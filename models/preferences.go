package models

import "time"

type Preferences struct {
	UserID              int       `json:"userId"`
	IsB2B               bool      `json:"is_b2b"`
	PreferredCategories []string  `json:"preferred_categories"`
	HiddenCategories    []string  `json:"hidden_categories"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

type PreferencesRequest struct {
	IsB2B               bool     `json:"is_b2b"`
	PreferredCategories []string `json:"preferred_categories"`
	HiddenCategories    []string `json:"hidden_categories"`
}

// DefaultPreferences is returned for users who never saved any.
func DefaultPreferences(userID int) *Preferences {
	return &Preferences{
		UserID:              userID,
		PreferredCategories: []string{},
		HiddenCategories:    []string{},
	}
}
