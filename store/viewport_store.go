package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mabletask/companion/models"
	"mabletask/companion/utils"
	"mabletask/companion/visibility"
	"mabletask/companion/visibility/reported"
)

var ErrSessionNotFound = errors.New("viewport session not found")

// ViewportStore is the in-memory hub of viewport sessions. Each session runs
// its tracker on a dedicated visibility.Loop; the store only routes requests
// to it.
type ViewportStore struct {
	mu       sync.RWMutex
	sessions map[string]*ViewportSession

	cfg    visibility.Config
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewViewportStore(cfg visibility.Config, ttl time.Duration, logger *slog.Logger) *ViewportStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewportStore{
		sessions: make(map[string]*ViewportSession),
		cfg:      cfg,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create opens a session for userID with no tracked items.
func (s *ViewportStore) Create(userID int, pageURL string) *ViewportSession {
	id := utils.GenerateSessionID()
	logger := s.logger.With("viewport_session", id)
	sess := &ViewportSession{
		ID:       id,
		UserID:   userID,
		loop:     visibility.NewLoop(),
		surface:  reported.New(logger),
		pageURL:  pageURL,
		watchers: make(map[chan int]struct{}),
		logger:   logger,
	}
	cfg := s.cfg
	cfg.Listener = sess.broadcast
	cfg.PageURL = func() string { return sess.pageURL }
	cfg.Logger = sess.logger
	sess.tracker = visibility.NewTracker(sess.surface, cfg)
	sess.touch(s.now())

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.logger.Info("viewport session created", "user_id", userID)
	return sess
}

// Get returns the session if it exists and belongs to userID.
func (s *ViewportStore) Get(id string, userID int) (*ViewportSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.UserID != userID {
		return nil, fmt.Errorf("%q: %w", id, ErrSessionNotFound)
	}
	sess.touch(s.now())
	return sess, nil
}

// Close tears the session down and forgets it.
func (s *ViewportStore) Close(id string, userID int) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	sess.close()
	sess.logger.Info("viewport session closed")
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (s *ViewportStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl).UnixNano()

	var expired []*ViewportSession
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Load() < cutoff {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		sess.logger.Info("viewport session expired")
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done, then closes the rest.
func (s *ViewportStore) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept viewport sessions", "count", n)
			}
		}
	}
}

// CloseAll closes every session.
func (s *ViewportStore) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*ViewportSession)
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

func (s *ViewportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ViewportSession is one browser tab reporting its viewport. All tracker
// and surface access happens on loop.
type ViewportSession struct {
	ID     string
	UserID int

	loop    *visibility.Loop
	surface *reported.Surface
	tracker *visibility.Tracker
	pageURL string

	lastSeen atomic.Int64
	logger   *slog.Logger

	mu       sync.Mutex
	watchers map[chan int]struct{}
	closed   bool
}

func (v *ViewportSession) touch(t time.Time) {
	v.lastSeen.Store(t.UnixNano())
}

// do runs fn on the session loop and waits for it.
func (v *ViewportSession) do(fn func()) error {
	if !v.loop.Do(fn) {
		return fmt.Errorf("%q: %w", v.ID, ErrSessionNotFound)
	}
	return nil
}

// Install replaces the tracked set with req.Items, described by records.
// A rejected set leaves the surface and the installed set untouched.
func (v *ViewportSession) Install(req models.InstallRequest, records []visibility.Record) (models.ViewportSessionResponse, error) {
	bindings := make([]visibility.Binding, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Rect == nil {
			return models.ViewportSessionResponse{}, fmt.Errorf("%w: item %q has no rect", visibility.ErrValidation, it.ID)
		}
		bindings = append(bindings, visibility.Binding{ID: it.ID, Handle: it.ID})
	}
	if err := visibility.ValidateSet(bindings, records); err != nil {
		return models.ViewportSessionResponse{}, err
	}

	var (
		resp       models.ViewportSessionResponse
		installErr error
	)
	err := v.do(func() {
		v.surface.SetViewportHeight(req.ViewportHeight)
		v.surface.SetSupported(req.ObserverSupported == nil || *req.ObserverSupported)
		if req.PageURL != "" {
			v.pageURL = req.PageURL
		}
		for _, it := range req.Items {
			v.surface.SetRect(it.ID, *it.Rect)
		}
		installErr = v.tracker.Install(bindings, records)
		resp = v.statusLocked()
	})
	if err != nil {
		return resp, err
	}
	return resp, installErr
}

// Notify applies one batch of client intersection changes and returns the
// Visible count afterwards. Batches arriving while nothing is being
// observed are discarded.
func (v *ViewportSession) Notify(batch models.NotificationBatch) (int, error) {
	var count int
	err := v.do(func() {
		v.surface.SetViewportHeight(batch.ViewportHeight)
		if batch.PageURL != "" {
			v.pageURL = batch.PageURL
		}
		changes := make([]reported.Change, 0, len(batch.Entries))
		for _, e := range batch.Entries {
			changes = append(changes, reported.Change{
				ID:             e.ID,
				IsIntersecting: e.IsIntersecting,
				Ratio:          e.IntersectionRatio,
				Rect:           e.Rect,
			})
		}
		v.surface.Dispatch(changes)
		count = v.tracker.VisibleCount()
	})
	return count, err
}

// Teardown clears the tracked set but keeps the session open.
func (v *ViewportSession) Teardown() error {
	return v.do(func() {
		v.tracker.Teardown()
		v.surface.Reset()
	})
}

func (v *ViewportSession) Snapshot() (visibility.Snapshot, error) {
	var snap visibility.Snapshot
	err := v.do(func() {
		snap = v.tracker.CaptureSnapshot()
	})
	return snap, err
}

func (v *ViewportSession) VisibleCount() (int, error) {
	var n int
	err := v.do(func() {
		n = v.tracker.VisibleCount()
	})
	return n, err
}

// Status reports the tracked size, Visible count and degraded flag.
func (v *ViewportSession) Status() (models.ViewportSessionResponse, error) {
	var resp models.ViewportSessionResponse
	err := v.do(func() {
		resp = v.statusLocked()
	})
	return resp, err
}

func (v *ViewportSession) statusLocked() models.ViewportSessionResponse {
	return models.ViewportSessionResponse{
		SessionID:    v.ID,
		Tracked:      v.tracker.Tracked(),
		VisibleCount: v.tracker.VisibleCount(),
		Degraded:     v.tracker.Degraded(),
	}
}

// Subscribe returns a channel receiving the latest Visible count whenever
// it changes. Slow readers only see the newest value. The channel is closed
// by cancel or when the session closes.
func (v *ViewportSession) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 1)
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	v.watchers[ch] = struct{}{}
	v.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if _, ok := v.watchers[ch]; ok {
				delete(v.watchers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (v *ViewportSession) broadcast(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ch := range v.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- n
	}
}

func (v *ViewportSession) close() {
	v.loop.Do(func() {
		v.tracker.Teardown()
		v.surface.Reset()
	})
	v.loop.Close()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for ch := range v.watchers {
		delete(v.watchers, ch)
		close(ch)
	}
}
