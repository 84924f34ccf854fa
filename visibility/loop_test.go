package visibility

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	var final []int
	l.Do(func() { final = append(final, got...) })

	assert.Len(t, final, 100)
	for i, v := range final {
		assert.Equal(t, i, v)
	}
}

func TestLoop_PostFromTask(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var order []string
	done := make(chan struct{})
	l.Post(func() {
		order = append(order, "outer")
		l.Post(func() {
			order = append(order, "inner")
			close(done)
		})
		order = append(order, "outer-end")
	})
	<-done

	var snapshot []string
	l.Do(func() { snapshot = append(snapshot, order...) })
	assert.Equal(t, []string{"outer", "outer-end", "inner"}, snapshot)
}

func TestLoop_SerializesConcurrentCallers(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var got int
	l.Do(func() { got = counter })
	assert.Equal(t, 1000, got)
}

func TestLoop_Close(t *testing.T) {
	l := NewLoop()
	ran := false
	l.Post(func() { ran = true })
	l.Close()

	assert.True(t, ran)
	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Do(func() {}))
	assert.NotPanics(t, l.Close)
}

func TestLoop_TrackerDeliveriesStayOrdered(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	p := newFakePlatform(800)
	var tr *Tracker
	var bindings []Binding
	for i := 0; i < 4; i++ {
		bindings = append(bindings, p.item(shoeID(i), 1000+float64(i)*300, 200))
	}
	l.Do(func() {
		tr = NewTracker(p, DefaultConfig())
		_ = tr.Install(bindings, recordsFor(bindings))
	})

	n := p.current()
	for i := 0; i < 4; i++ {
		id := shoeID(i)
		l.Post(func() { n.fire(Entry{ID: id, IsIntersecting: true}) })
	}

	var snap Snapshot
	l.Do(func() { snap = tr.CaptureSnapshot() })
	assert.Len(t, snap.VisibleProducts, 4)
	assert.Empty(t, snap.BelowFoldProducts)
}
