package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mabletask/companion/middleware"
	"mabletask/companion/models"
	"mabletask/companion/utils"
)

type PreferencesRepository interface {
	Get(ctx context.Context, userID int) (*models.Preferences, error)
	Upsert(ctx context.Context, userID int, req models.PreferencesRequest) (*models.Preferences, error)
}

type PreferencesHandlers struct {
	Preferences PreferencesRepository
}

func NewPreferencesHandlers(p PreferencesRepository) *PreferencesHandlers {
	return &PreferencesHandlers{Preferences: p}
}

func (h *PreferencesHandlers) Get(c *gin.Context) {
	p, err := h.Preferences.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("preferences: lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching preferences"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PreferencesHandlers) Update(c *gin.Context) {
	var req models.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	for _, list := range [][]string{req.PreferredCategories, req.HiddenCategories} {
		for _, cat := range list {
			if !utils.IsValidCategory(cat) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category", "category": cat})
				return
			}
		}
	}

	p, err := h.Preferences.Upsert(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		slog.Error("preferences: update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating preferences"})
		return
	}
	c.JSON(http.StatusOK, p)
}
