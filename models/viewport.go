package models

import "mabletask/companion/visibility"

// ViewportItem is one rendered product card and its bounding rectangle.
type ViewportItem struct {
	ID   string           `json:"id" binding:"required"`
	Rect *visibility.Rect `json:"rect" binding:"required"`
}

// InstallRequest replaces the tracked set of a viewport session. When
// Products is empty the records are looked up in the catalog.
type InstallRequest struct {
	PageURL           string         `json:"page_url"`
	ViewportHeight    float64        `json:"viewport_height" binding:"required,gt=0"`
	ObserverSupported *bool          `json:"observer_supported"`
	Items             []ViewportItem `json:"items" binding:"dive"`
	Products          []Product      `json:"products"`
}

// IntersectionChange is one client-side intersection observer entry.
type IntersectionChange struct {
	ID                string           `json:"id" binding:"required"`
	IsIntersecting    bool             `json:"is_intersecting"`
	IntersectionRatio float64          `json:"intersection_ratio"`
	Rect              *visibility.Rect `json:"rect"`
}

type NotificationBatch struct {
	PageURL        string               `json:"page_url"`
	ViewportHeight float64              `json:"viewport_height"`
	Entries        []IntersectionChange `json:"entries" binding:"dive"`
}

type ViewportSessionResponse struct {
	SessionID    string `json:"session_id"`
	Tracked      int    `json:"tracked"`
	VisibleCount int    `json:"visible_count"`
	Degraded     bool   `json:"degraded"`
}

type VisibleCountResponse struct {
	SessionID    string `json:"session_id"`
	VisibleCount int    `json:"visible_count"`
}
