package visibility

// Listener receives the Visible count whenever it changes.
type Listener func(visibleCount int)

// countSignal coalesces Visible count reports so the listener only ever
// sees a value different from the previous one.
type countSignal struct {
	last     int
	listener Listener
}

func (s *countSignal) report(n int) {
	if n == s.last {
		return
	}
	s.last = n
	if s.listener != nil {
		s.listener(n)
	}
}

func (s *countSignal) value() int {
	return s.last
}
