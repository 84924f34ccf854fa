package visibility

import "encoding/json"

// Record is the externally owned product data for a tracked item. The
// tracker only reads it when building snapshots.
type Record struct {
	ID           string
	Name         string
	Category     string
	Price        float64
	Discount     *float64
	Description  string
	InStock      bool
	B2BAvailable bool
	B2CAvailable bool
}

// ProductEntry is one product line in a Snapshot.
type ProductEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Discount    *float64 `json:"discount,omitempty"`
	Description string   `json:"description,omitempty"`
	Visible     bool     `json:"visible"`
}

// Buckets selects which fold buckets a Snapshot carries besides
// visible_products.
type Buckets struct {
	IncludeAboveFold bool
	IncludeBelowFold bool
}

// DefaultBuckets matches the wire shape the assistant service expects.
func DefaultBuckets() Buckets {
	return Buckets{IncludeBelowFold: true}
}

// Snapshot is an immutable view of the classified items at capture time.
// A nil AboveFoldProducts or BelowFoldProducts means the bucket was not
// configured and is left out of the JSON.
type Snapshot struct {
	VisibleProducts   []ProductEntry
	AboveFoldProducts []ProductEntry
	BelowFoldProducts []ProductEntry
	PageURL           string
	Timestamp         int64
}

type snapshotWire struct {
	VisibleProducts   []ProductEntry  `json:"visible_products"`
	AboveFoldProducts *[]ProductEntry `json:"above_fold_products,omitempty"`
	BelowFoldProducts *[]ProductEntry `json:"below_fold_products,omitempty"`
	PageURL           string          `json:"page_url"`
	Timestamp         int64           `json:"timestamp"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := snapshotWire{
		VisibleProducts: s.VisibleProducts,
		PageURL:         s.PageURL,
		Timestamp:       s.Timestamp,
	}
	if w.VisibleProducts == nil {
		w.VisibleProducts = []ProductEntry{}
	}
	if s.AboveFoldProducts != nil {
		w.AboveFoldProducts = &s.AboveFoldProducts
	}
	if s.BelowFoldProducts != nil {
		w.BelowFoldProducts = &s.BelowFoldProducts
	}
	return json.Marshal(w)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snapshot{
		VisibleProducts: w.VisibleProducts,
		PageURL:         w.PageURL,
		Timestamp:       w.Timestamp,
	}
	if s.VisibleProducts == nil {
		s.VisibleProducts = []ProductEntry{}
	}
	if w.AboveFoldProducts != nil {
		s.AboveFoldProducts = *w.AboveFoldProducts
	}
	if w.BelowFoldProducts != nil {
		s.BelowFoldProducts = *w.BelowFoldProducts
	}
	return nil
}

// Total is the number of products across all carried buckets.
func (s Snapshot) Total() int {
	return len(s.VisibleProducts) + len(s.AboveFoldProducts) + len(s.BelowFoldProducts)
}

func entryFor(r Record, visible bool) ProductEntry {
	e := ProductEntry{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Description: r.Description,
		Visible:     visible,
	}
	if r.Discount != nil {
		d := *r.Discount
		e.Discount = &d
	}
	return e
}

// buildSnapshot joins zones with records in record order. Zoned ids with no
// record are dropped.
func buildSnapshot(zones map[string]Zone, records []Record, b Buckets, pageURL string, ts int64) Snapshot {
	s := Snapshot{
		VisibleProducts: []ProductEntry{},
		PageURL:         pageURL,
		Timestamp:       ts,
	}
	if b.IncludeAboveFold {
		s.AboveFoldProducts = []ProductEntry{}
	}
	if b.IncludeBelowFold {
		s.BelowFoldProducts = []ProductEntry{}
	}

	for _, r := range records {
		z, ok := zones[r.ID]
		if !ok {
			continue
		}
		switch z {
		case ZoneVisible:
			s.VisibleProducts = append(s.VisibleProducts, entryFor(r, true))
		case ZoneAboveFold:
			if b.IncludeAboveFold {
				s.AboveFoldProducts = append(s.AboveFoldProducts, entryFor(r, false))
			}
		case ZoneBelowFold:
			if b.IncludeBelowFold {
				s.BelowFoldProducts = append(s.BelowFoldProducts, entryFor(r, false))
			}
		}
	}
	return s
}
