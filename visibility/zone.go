package visibility

import "fmt"

// Zone is the visibility classification of a tracked item.
type Zone int

const (
	ZoneUnclassified Zone = iota
	ZoneVisible
	ZoneAboveFold
	ZoneBelowFold
)

func (z Zone) String() string {
	switch z {
	case ZoneVisible:
		return "visible"
	case ZoneAboveFold:
		return "above_fold"
	case ZoneBelowFold:
		return "below_fold"
	case ZoneUnclassified:
		return "unclassified"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Rect is the vertical extent of an element relative to the top edge of
// the viewing surface.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Height returns the element height, never negative.
func (r Rect) Height() float64 {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Classify maps one intersection report to a Zone. A non-intersecting
// element that is neither fully above nor fully below the surface is
// ambiguous and yields ZoneUnclassified; the caller keeps its prior zone.
// Exact boundaries belong to the fold side.
func Classify(isIntersecting bool, r Rect, viewportHeight float64) Zone {
	if isIntersecting {
		return ZoneVisible
	}
	if r.Bottom <= 0 {
		return ZoneAboveFold
	}
	if r.Top >= viewportHeight {
		return ZoneBelowFold
	}
	return ZoneUnclassified
}

// IntersectionRatio is the fraction of r's height overlapping
// [0, viewportHeight]. Zero-height rects report 0.
func IntersectionRatio(r Rect, viewportHeight float64) float64 {
	h := r.Height()
	if h <= 0 || viewportHeight <= 0 {
		return 0
	}
	top := max(r.Top, 0)
	bottom := min(r.Bottom, viewportHeight)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / h
}

// classifyGeometry is used on install, where there is no platform report
// and no prior zone. Intersection is derived from the threshold and an
// ambiguous result settles to the fold the element straddles.
func classifyGeometry(r Rect, viewportHeight, threshold float64) Zone {
	ratio := IntersectionRatio(r, viewportHeight)
	intersecting := ratio > 0 && ratio >= threshold
	if z := Classify(intersecting, r, viewportHeight); z != ZoneUnclassified {
		return z
	}
	if r.Top < 0 {
		return ZoneAboveFold
	}
	return ZoneBelowFold
}
