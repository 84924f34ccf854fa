package visibility

// Handle is an opaque reference to a rendered element, owned by the
// platform that created it.
type Handle any

// Binding pairs a tracked identifier with its rendered element.
type Binding struct {
	ID     string
	Handle Handle
}

// Entry is one intersection change delivered by a Notifier.
type Entry struct {
	ID             string  `json:"id"`
	IsIntersecting bool    `json:"is_intersecting"`
	Ratio          float64 `json:"ratio,omitempty"`
}

// Surface answers geometry queries against the viewing surface. Both calls
// are synchronous.
type Surface interface {
	ViewportHeight() float64
	BoundingRect(h Handle) Rect
}

// Notifier is the platform's asynchronous intersection subscription.
// Deliveries must happen on the same Loop the Tracker runs on.
type Notifier interface {
	Watch(id string, h Handle) error
	Unwatch(id string)
	Close()
}

// Platform is a viewing surface that can also create notifiers. A
// NewNotifier error means the notification capability is unavailable.
type Platform interface {
	Surface
	NewNotifier(threshold float64, deliver func([]Entry)) (Notifier, error)
}
