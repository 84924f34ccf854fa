package visibility

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultThreshold is the intersection ratio at which an element counts as
// visible.
const DefaultThreshold = 0.5

// Config configures a Tracker. Zero fields take defaults.
type Config struct {
	// Threshold is the intersection ratio requested from the platform.
	Threshold float64
	Buckets   Buckets
	// Listener is called with the new Visible count whenever it changes.
	Listener Listener
	// PageURL supplies the snapshot context identifier at capture time.
	PageURL func() string
	// Now stamps snapshots.
	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the browser front end.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Buckets:   DefaultBuckets(),
	}
}

// Tracker is the observation manager: it owns the registry for the current
// session, the platform notifier and the Visible count signal.
type Tracker struct {
	platform Platform
	cfg      Config
	logger   *slog.Logger

	reg      *registry
	records  []Record
	notifier Notifier
	signal   countSignal

	// gen identifies the session; deliveries from older notifiers are dropped.
	gen      uint64
	active   bool
	degraded bool
}

// NewTracker creates a Tracker with no active session.
func NewTracker(p Platform, cfg Config) *Tracker {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Tracker{
		platform: p,
		cfg:      cfg,
		logger:   cfg.Logger,
		reg:      newRegistry(),
		signal:   countSignal{listener: cfg.Listener},
	}
}

// Install replaces the tracked set. Any prior session is torn down first
// and every new item is classified before it is watched, so readers never
// see an unclassified item. A malformed set is rejected with ErrValidation
// before anything changes.
func (t *Tracker) Install(bindings []Binding, records []Record) error {
	if err := ValidateSet(bindings, records); err != nil {
		return err
	}

	t.teardown()
	t.gen++
	t.active = true
	t.records = append([]Record(nil), records...)

	height := t.platform.ViewportHeight()
	for _, b := range bindings {
		rect := t.platform.BoundingRect(b.Handle)
		t.reg.upsert(b.ID, classifyGeometry(rect, height, t.cfg.Threshold), rect, b.Handle)
	}

	gen := t.gen
	n, err := t.platform.NewNotifier(t.cfg.Threshold, func(entries []Entry) {
		if gen != t.gen {
			t.logger.Debug("visibility: dropped batch from replaced session",
				"entries", len(entries))
			return
		}
		t.OnNotificationBatch(entries)
	})
	if err != nil {
		t.degraded = true
		t.logger.Warn("visibility: notifications unavailable, zones frozen at install",
			"items", len(bindings), "error", err)
	} else {
		t.notifier = n
		for _, b := range bindings {
			if err := n.Watch(b.ID, b.Handle); err != nil {
				t.degraded = true
				t.logger.Warn("visibility: watch failed", "id", b.ID, "error", err)
			}
		}
	}

	t.signal.report(t.reg.visibleCount())
	t.logger.Debug("visibility: installed",
		"items", len(bindings), "visible", t.signal.value(), "degraded", t.degraded)
	return nil
}

// ValidateSet reports, as ErrValidation, a set Install would reject:
// mismatched lengths, empty identifiers or duplicates. Hosts that stage
// platform geometry call it before touching their platform.
func ValidateSet(bindings []Binding, records []Record) error {
	if len(bindings) != len(records) {
		return fmt.Errorf("%w: %d handles but %d records", ErrValidation, len(bindings), len(records))
	}
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if b.ID == "" {
			return fmt.Errorf("%w: empty identifier", ErrValidation)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: duplicate identifier %q", ErrValidation, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	clear(seen)
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate record %q", ErrValidation, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// OnNotificationBatch applies one platform batch. Unknown identifiers are
// ignored. A non-intersecting entry whose geometry is ambiguous keeps its
// previous zone. The Visible count is reported once per batch.
func (t *Tracker) OnNotificationBatch(entries []Entry) {
	var height float64
	heightRead := false

	for _, e := range entries {
		it, ok := t.reg.lookup(e.ID)
		if !ok {
			t.logger.Debug("visibility: notification for untracked item", "id", e.ID)
			continue
		}
		if e.IsIntersecting {
			it.zone = ZoneVisible
			continue
		}
		if !heightRead {
			height = t.platform.ViewportHeight()
			heightRead = true
		}
		it.rect = t.platform.BoundingRect(it.handle)
		if z := Classify(false, it.rect, height); z != ZoneUnclassified {
			it.zone = z
		}
	}

	t.signal.report(t.reg.visibleCount())
}

// Teardown ends the current session. It is idempotent.
func (t *Tracker) Teardown() {
	t.teardown()
	t.signal.report(0)
}

func (t *Tracker) teardown() {
	if t.notifier != nil {
		for id := range t.reg.items {
			t.notifier.Unwatch(id)
		}
		t.notifier.Close()
		t.notifier = nil
	}
	if t.active {
		// Invalidate any delivery still in flight for this session.
		t.gen++
	}
	t.reg.clear()
	t.records = nil
	t.active = false
	t.degraded = false
}

// VisibleCount returns the last value reported through the signal.
func (t *Tracker) VisibleCount() int {
	return t.signal.value()
}

// Zones returns a copy of the current classification.
func (t *Tracker) Zones() map[string]Zone {
	return t.reg.zones()
}

// Zone returns the classification of one tracked item.
func (t *Tracker) Zone(id string) (Zone, bool) {
	it, ok := t.reg.lookup(id)
	if !ok {
		return ZoneUnclassified, false
	}
	return it.zone, true
}

// Tracked reports how many items the current session tracks.
func (t *Tracker) Tracked() int {
	return t.reg.len()
}

// Active reports whether a session is installed.
func (t *Tracker) Active() bool {
	return t.active
}

// Degraded reports whether the current session runs without notifications.
func (t *Tracker) Degraded() bool {
	return t.degraded
}

// CaptureSnapshot builds a fresh snapshot of the current classification.
func (t *Tracker) CaptureSnapshot() Snapshot {
	pageURL := ""
	if t.cfg.PageURL != nil {
		pageURL = t.cfg.PageURL()
	}
	return buildSnapshot(t.reg.zones(), t.records, t.cfg.Buckets, pageURL, t.cfg.Now().UnixMilli())
}
