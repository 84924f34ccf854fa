package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mabletask/companion/middleware"
	"mabletask/companion/models"
	"mabletask/companion/store"
	"mabletask/companion/visibility"
)

// ViewportHandlers expose server-hosted visibility trackers fed by the
// browser's intersection reports.
type ViewportHandlers struct {
	Sessions *store.ViewportStore
	Products *store.ProductStore
}

func NewViewportHandlers(sessions *store.ViewportStore, products *store.ProductStore) *ViewportHandlers {
	return &ViewportHandlers{Sessions: sessions, Products: products}
}

type createViewportSessionRequest struct {
	PageURL string `json:"page_url"`
}

func (h *ViewportHandlers) Create(c *gin.Context) {
	var req createViewportSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	sess := h.Sessions.Create(middleware.UserID(c), req.PageURL)
	c.JSON(http.StatusCreated, models.ViewportSessionResponse{SessionID: sess.ID})
}

func (h *ViewportHandlers) session(c *gin.Context) (*store.ViewportSession, bool) {
	sess, err := h.Sessions.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Viewport session not found"})
		return nil, false
	}
	return sess, true
}

// sessionError maps session operation errors to responses.
func sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Viewport session not found"})
	case errors.Is(err, visibility.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tracked set", "details": err.Error()})
	default:
		slog.Error("viewport session operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Viewport session operation failed"})
	}
}

// Install replaces the tracked set. Records come from the request's
// products when given, otherwise from the catalog.
func (h *ViewportHandlers) Install(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req models.InstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var records []visibility.Record
	if len(req.Products) > 0 {
		records = make([]visibility.Record, 0, len(req.Products))
		for _, p := range req.Products {
			records = append(records, p.Record())
		}
	} else {
		ids := make([]string, 0, len(req.Items))
		for _, it := range req.Items {
			ids = append(ids, it.ID)
		}
		var err error
		records, err = h.Products.Records(ids)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown product", "details": err.Error()})
			return
		}
	}

	resp, err := sess.Install(req, records)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ViewportHandlers) Notify(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var batch models.NotificationBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	count, err := sess.Notify(batch)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VisibleCountResponse{SessionID: sess.ID, VisibleCount: count})
}

func (h *ViewportHandlers) Teardown(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Teardown(); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ViewportHandlers) Snapshot(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *ViewportHandlers) Count(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := sess.VisibleCount()
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VisibleCountResponse{SessionID: sess.ID, VisibleCount: n})
}

// CountStream sends the current Visible count, then every change, as
// server-sent visible_count events until the client leaves or the session
// closes.
func (h *ViewportHandlers) CountStream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	counts, cancel := sess.Subscribe()
	defer cancel()

	n, err := sess.VisibleCount()
	if err != nil {
		sessionError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("visible_count", models.VisibleCountResponse{SessionID: sess.ID, VisibleCount: n})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case n, ok := <-counts:
			if !ok {
				return false
			}
			c.SSEvent("visible_count", models.VisibleCountResponse{SessionID: sess.ID, VisibleCount: n})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *ViewportHandlers) Close(c *gin.Context) {
	if err := h.Sessions.Close(c.Param("id"), middleware.UserID(c)); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
