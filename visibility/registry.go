package visibility

type trackedItem struct {
	zone   Zone
	rect   Rect
	handle Handle
}

// registry holds the per-session classification. Only the Tracker mutates it.
type registry struct {
	items map[string]*trackedItem
}

func newRegistry() *registry {
	return &registry{items: make(map[string]*trackedItem)}
}

func (r *registry) upsert(id string, zone Zone, rect Rect, h Handle) {
	if it, ok := r.items[id]; ok {
		it.zone, it.rect, it.handle = zone, rect, h
		return
	}
	r.items[id] = &trackedItem{zone: zone, rect: rect, handle: h}
}

func (r *registry) lookup(id string) (*trackedItem, bool) {
	it, ok := r.items[id]
	return it, ok
}

func (r *registry) remove(id string) {
	delete(r.items, id)
}

func (r *registry) clear() {
	clear(r.items)
}

func (r *registry) len() int {
	return len(r.items)
}

// zones returns a copy; callers may keep or mutate it freely.
func (r *registry) zones() map[string]Zone {
	out := make(map[string]Zone, len(r.items))
	for id, it := range r.items {
		out[id] = it.zone
	}
	return out
}

func (r *registry) visibleCount() int {
	n := 0
	for _, it := range r.items {
		if it.zone == ZoneVisible {
			n++
		}
	}
	return n
}
