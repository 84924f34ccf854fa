// Package reported implements a visibility.Platform whose geometry and
// intersection changes are pushed by a remote browser client, typically
// over HTTP. Handles are the item identifiers themselves.
//
// A Surface is not safe for concurrent use; it lives on the same
// visibility.Loop as the Tracker it serves.
package reported

import (
	"log/slog"

	"mabletask/companion/visibility"
)

// Surface stores the last geometry reported by the client.
type Surface struct {
	height float64
	rects  map[string]visibility.Rect

	// supported is false when the client reported it has no intersection
	// observer; NewNotifier then fails and the tracker degrades.
	supported bool
	current   *notifier
	logger    *slog.Logger
}

// New returns a Surface that supports notifications. A nil logger means
// slog.Default().
func New(logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		rects:     make(map[string]visibility.Rect),
		supported: true,
		logger:    logger,
	}
}

// SetViewportHeight records the client's viewport height. Non-positive
// values are ignored.
func (s *Surface) SetViewportHeight(h float64) {
	if h > 0 {
		s.height = h
	}
}

// SetSupported records whether the client can observe intersections.
func (s *Surface) SetSupported(ok bool) {
	s.supported = ok
}

// SetRect records the bounding rectangle of one item.
func (s *Surface) SetRect(id string, r visibility.Rect) {
	s.rects[id] = r
}

// Reset forgets all recorded rectangles.
func (s *Surface) Reset() {
	clear(s.rects)
}

func (s *Surface) ViewportHeight() float64 {
	return s.height
}

func (s *Surface) BoundingRect(h visibility.Handle) visibility.Rect {
	id, _ := h.(string)
	return s.rects[id]
}

func (s *Surface) NewNotifier(threshold float64, deliver func([]visibility.Entry)) (visibility.Notifier, error) {
	if !s.supported {
		return nil, visibility.ErrUnavailable
	}
	n := &notifier{
		surface:   s,
		threshold: threshold,
		deliver:   deliver,
		watched:   make(map[string]struct{}),
	}
	s.current = n
	return n, nil
}

// Threshold returns the intersection ratio the current session asked for,
// or 0 when no notifier is open.
func (s *Surface) Threshold() float64 {
	if s.current == nil {
		return 0
	}
	return s.current.threshold
}

// Change is one client-side intersection report.
type Change struct {
	ID             string
	IsIntersecting bool
	Ratio          float64
	Rect           *visibility.Rect
}

// Dispatch records the geometry carried by changes for watched items and
// delivers them as one batch to the open notifier. Reports for items never
// watched are passed through and the tracker drops them. With no open
// notifier (torn down or degraded) the batch is discarded. It returns the
// number of entries delivered.
func (s *Surface) Dispatch(changes []Change) int {
	if s.current == nil {
		s.logger.Debug("reported: no open notifier, batch discarded", "entries", len(changes))
		return 0
	}
	entries := make([]visibility.Entry, 0, len(changes))
	for _, c := range changes {
		if _, watched := s.current.watched[c.ID]; watched && c.Rect != nil {
			s.rects[c.ID] = *c.Rect
		}
		entries = append(entries, visibility.Entry{
			ID:             c.ID,
			IsIntersecting: c.IsIntersecting,
			Ratio:          c.Ratio,
		})
	}
	s.current.deliver(entries)
	return len(entries)
}

type notifier struct {
	surface   *Surface
	threshold float64
	deliver   func([]visibility.Entry)
	watched   map[string]struct{}
}

func (n *notifier) Watch(id string, _ visibility.Handle) error {
	n.watched[id] = struct{}{}
	return nil
}

func (n *notifier) Unwatch(id string) {
	delete(n.watched, id)
}

func (n *notifier) Close() {
	clear(n.watched)
	if n.surface.current == n {
		n.surface.current = nil
	}
}
