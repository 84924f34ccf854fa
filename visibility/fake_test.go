package visibility

import (
	"errors"
	"fmt"
)

// fakePlatform is an in-memory surface whose handles are item ids.
type fakePlatform struct {
	height float64
	rects  map[string]Rect

	failNotifier bool
	failWatch    map[string]bool

	notifiers []*fakeNotifier
}

func newFakePlatform(height float64) *fakePlatform {
	return &fakePlatform{
		height:    height,
		rects:     make(map[string]Rect),
		failWatch: make(map[string]bool),
	}
}

func (p *fakePlatform) ViewportHeight() float64 { return p.height }

func (p *fakePlatform) BoundingRect(h Handle) Rect {
	return p.rects[h.(string)]
}

func (p *fakePlatform) NewNotifier(threshold float64, deliver func([]Entry)) (Notifier, error) {
	if p.failNotifier {
		return nil, ErrUnavailable
	}
	n := &fakeNotifier{
		platform:  p,
		threshold: threshold,
		deliver:   deliver,
		watched:   make(map[string]bool),
	}
	p.notifiers = append(p.notifiers, n)
	return n, nil
}

// current returns the most recently created notifier.
func (p *fakePlatform) current() *fakeNotifier {
	if len(p.notifiers) == 0 {
		return nil
	}
	return p.notifiers[len(p.notifiers)-1]
}

// item places id at [top, top+height).
func (p *fakePlatform) item(id string, top, height float64) Binding {
	p.rects[id] = Rect{Top: top, Bottom: top + height}
	return Binding{ID: id, Handle: id}
}

type fakeNotifier struct {
	platform  *fakePlatform
	threshold float64
	deliver   func([]Entry)
	watched   map[string]bool
	closed    bool
}

func (n *fakeNotifier) Watch(id string, h Handle) error {
	if n.platform.failWatch[id] {
		return errors.New("watch refused")
	}
	n.watched[id] = true
	return nil
}

func (n *fakeNotifier) Unwatch(id string) {
	delete(n.watched, id)
}

func (n *fakeNotifier) Close() {
	n.closed = true
}

// fire delivers a batch regardless of whether the notifier was closed, to
// model callbacks already in flight.
func (n *fakeNotifier) fire(entries ...Entry) {
	n.deliver(entries)
}

func record(id string) Record {
	d := 10.0
	return Record{
		ID:          id,
		Name:        "Shoe " + id,
		Category:    "casual",
		Price:       59.99,
		Discount:    &d,
		Description: "A comfortable shoe",
		InStock:     true,
	}
}

func recordsFor(bindings []Binding) []Record {
	out := make([]Record, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, record(b.ID))
	}
	return out
}

func shoeID(i int) string {
	return fmt.Sprintf("shoe-%03d", i)
}
