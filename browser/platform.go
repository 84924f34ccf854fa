// Package browser implements visibility.Platform on a live Chrome page
// driven through go-rod. An IntersectionObserver injected into the page
// reports changes back through a CDP runtime binding.
package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"mabletask/companion/visibility"
)

//go:embed observer.js
var observerJS string

const bindingName = "__viewport_binding"

// Platform is a visibility.Platform whose handles are *rod.Element values.
// Geometry calls and notifier methods must run on loop; binding events are
// posted onto it.
type Platform struct {
	page   *rod.Page
	loop   *visibility.Loop
	logger *slog.Logger
	cancel context.CancelFunc

	nextID  atomic.Int64
	current *notifier
}

// New attaches to page. Close detaches the binding listener.
func New(page *rod.Page, loop *visibility.Loop, logger *slog.Logger) (*Platform, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Platform{page: page, loop: loop, logger: logger, cancel: cancel}
	go page.Context(ctx).EachEvent(p.onBinding)()
	return p, nil
}

func (p *Platform) Close() {
	p.cancel()
}

type bindingPayload struct {
	Observer int64              `json:"observer"`
	Entries  []visibility.Entry `json:"entries"`
}

func (p *Platform) onBinding(e *proto.RuntimeBindingCalled) {
	if e.Name != bindingName {
		return
	}
	var payload bindingPayload
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
		p.logger.Warn("browser: bad binding payload", "error", err)
		return
	}
	p.loop.Post(func() {
		n := p.current
		if n == nil || n.id != payload.Observer {
			p.logger.Debug("browser: dropped batch from closed observer", "observer", payload.Observer)
			return
		}
		n.deliver(payload.Entries)
	})
}

func (p *Platform) ViewportHeight() float64 {
	res, err := p.page.Eval(`() => window.innerHeight`)
	if err != nil {
		p.logger.Warn("browser: viewport height", "error", err)
		return 0
	}
	return res.Value.Num()
}

func (p *Platform) BoundingRect(h visibility.Handle) visibility.Rect {
	el, ok := h.(*rod.Element)
	if !ok {
		return visibility.Rect{}
	}
	res, err := el.Eval(`function () {
		const r = this.getBoundingClientRect();
		return { top: r.top, bottom: r.bottom };
	}`)
	if err != nil {
		p.logger.Warn("browser: bounding rect", "error", err)
		return visibility.Rect{}
	}
	return visibility.Rect{
		Top:    res.Value.Get("top").Num(),
		Bottom: res.Value.Get("bottom").Num(),
	}
}

func (p *Platform) NewNotifier(threshold float64, deliver func([]visibility.Entry)) (visibility.Notifier, error) {
	id := p.nextID.Add(1)
	res, err := p.page.Eval(observerJS, id, threshold)
	if err != nil {
		return nil, fmt.Errorf("browser: install observer: %w", err)
	}
	if !res.Value.Bool() {
		return nil, fmt.Errorf("browser: %w: no IntersectionObserver", visibility.ErrUnavailable)
	}
	n := &notifier{
		platform: p,
		id:       id,
		deliver:  deliver,
		elements: make(map[string]*rod.Element),
	}
	p.current = n
	return n, nil
}

type notifier struct {
	platform *Platform
	id       int64
	deliver  func([]visibility.Entry)
	elements map[string]*rod.Element
}

func (n *notifier) Watch(id string, h visibility.Handle) error {
	el, ok := h.(*rod.Element)
	if !ok {
		return fmt.Errorf("browser: handle for %q is %T, not an element", id, h)
	}
	res, err := el.Eval(`function (observerId, itemId) {
		return window.__viewport.watch(observerId, itemId, this);
	}`, n.id, id)
	if err != nil {
		return fmt.Errorf("browser: watch %q: %w", id, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: watch %q: observer %d is gone", id, n.id)
	}
	n.elements[id] = el
	return nil
}

func (n *notifier) Unwatch(id string) {
	el, ok := n.elements[id]
	if !ok {
		return
	}
	delete(n.elements, id)
	if _, err := el.Eval(`function (observerId) {
		window.__viewport.unwatch(observerId, this);
	}`, n.id); err != nil {
		n.platform.logger.Debug("browser: unwatch", "id", id, "error", err)
	}
}

func (n *notifier) Close() {
	if _, err := n.platform.page.Eval(`(observerId) => window.__viewport.disconnect(observerId)`, n.id); err != nil {
		n.platform.logger.Debug("browser: disconnect observer", "error", err)
	}
	clear(n.elements)
	if n.platform.current == n {
		n.platform.current = nil
	}
}
