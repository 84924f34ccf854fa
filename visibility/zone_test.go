package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	const h = 800.0

	tests := []struct {
		name         string
		intersecting bool
		rect         Rect
		want         Zone
	}{
		{"intersecting inside", true, Rect{Top: 100, Bottom: 400}, ZoneVisible},
		{"intersecting straddling", true, Rect{Top: -50, Bottom: 300}, ZoneVisible},
		{"fully above", false, Rect{Top: -400, Bottom: -10}, ZoneAboveFold},
		{"fully below", false, Rect{Top: 850, Bottom: 1150}, ZoneBelowFold},
		{"bottom on top edge", false, Rect{Top: -300, Bottom: 0}, ZoneAboveFold},
		{"top on bottom edge", false, Rect{Top: 800, Bottom: 1100}, ZoneBelowFold},
		{"straddling top edge", false, Rect{Top: -295, Bottom: 5}, ZoneUnclassified},
		{"straddling bottom edge", false, Rect{Top: 700, Bottom: 1000}, ZoneUnclassified},
		{"inside but not reported", false, Rect{Top: 100, Bottom: 400}, ZoneUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.intersecting, tt.rect, h))
		})
	}
}

func TestClassify_Properties(t *testing.T) {
	const h = 800.0
	for top := -2000.0; top <= 2000; top += 37 {
		for height := 1.0; height <= 600; height += 53 {
			r := Rect{Top: top, Bottom: top + height}
			if r.Top >= 0 && r.Bottom <= h {
				assert.Equal(t, ZoneVisible, Classify(true, r, h), "rect %+v", r)
			}
			if r.Bottom < 0 {
				assert.Equal(t, ZoneAboveFold, Classify(false, r, h), "rect %+v", r)
			}
			if r.Top > h {
				assert.Equal(t, ZoneBelowFold, Classify(false, r, h), "rect %+v", r)
			}
		}
	}
}

func TestIntersectionRatio(t *testing.T) {
	const h = 800.0
	assert.Equal(t, 1.0, IntersectionRatio(Rect{Top: 0, Bottom: 300}, h))
	assert.Equal(t, 0.0, IntersectionRatio(Rect{Top: 850, Bottom: 1150}, h))
	assert.InDelta(t, 0.4, IntersectionRatio(Rect{Top: -60, Bottom: 40}, h), 1e-9)
	assert.InDelta(t, 0.5, IntersectionRatio(Rect{Top: 700, Bottom: 900}, h), 1e-9)
	assert.Equal(t, 0.0, IntersectionRatio(Rect{Top: 100, Bottom: 100}, h))
	assert.Equal(t, 0.0, IntersectionRatio(Rect{Top: 100, Bottom: 400}, 0))
}

func TestClassifyGeometry(t *testing.T) {
	const h = 800.0
	tests := []struct {
		name string
		rect Rect
		want Zone
	}{
		{"inside", Rect{Top: 10, Bottom: 300}, ZoneVisible},
		{"half visible at bottom", Rect{Top: 700, Bottom: 900}, ZoneVisible},
		{"mostly below", Rect{Top: 760, Bottom: 1060}, ZoneBelowFold},
		{"mostly above", Rect{Top: -250, Bottom: 50}, ZoneAboveFold},
		{"above", Rect{Top: -400, Bottom: -100}, ZoneAboveFold},
		{"below", Rect{Top: 1200, Bottom: 1500}, ZoneBelowFold},
		{"collapsed inside", Rect{Top: 200, Bottom: 200}, ZoneBelowFold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyGeometry(tt.rect, h, DefaultThreshold))
		})
	}
}

func TestZoneString(t *testing.T) {
	assert.Equal(t, "visible", ZoneVisible.String())
	assert.Equal(t, "above_fold", ZoneAboveFold.String())
	assert.Equal(t, "below_fold", ZoneBelowFold.String())
	assert.Equal(t, "unclassified", ZoneUnclassified.String())
	assert.Equal(t, "zone(9)", Zone(9).String())
}
