package store

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"mabletask/companion/models"
	"mabletask/companion/visibility"
)

//go:embed data/products.json
var defaultCatalog []byte

// ProductStore is the read-only product catalog. It is loaded once and
// safe for concurrent readers.
type ProductStore struct {
	products []models.Product
	byID     map[string]int
}

// LoadProducts reads the catalog from path, or the embedded catalog when
// path is empty.
func LoadProducts(path string) (*ProductStore, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read product catalog: %w", err)
		}
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse product catalog: %w", err)
	}
	return NewProductStore(products)
}

// NewProductStore indexes products. Ids must be unique and non-empty.
func NewProductStore(products []models.Product) (*ProductStore, error) {
	s := &ProductStore{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		s.byID[p.ID] = i
	}
	return s, nil
}

func (s *ProductStore) Get(id string) (models.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %q: %w", id, ErrNotFound)
	}
	return s.products[i], nil
}

// Records returns the tracker records for ids, in the same order.
func (s *ProductStore) Records(ids []string) ([]visibility.Record, error) {
	out := make([]visibility.Record, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Record())
	}
	return out, nil
}

// Filter returns the products matching every set field of f, in catalog
// order.
func (s *ProductStore) Filter(f models.ProductFilter) []models.Product {
	var categories []string
	for _, c := range strings.Split(f.Category, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := []models.Product{}
	for _, p := range s.products {
		if len(categories) > 0 && !slices.Contains(categories, p.Category) {
			continue
		}
		switch f.CustomerType {
		case "b2b":
			if !p.B2BAvailable {
				continue
			}
		case "b2c":
			if !p.B2CAvailable {
				continue
			}
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.HasDiscount != nil && (p.Discount > 0) != *f.HasDiscount {
			continue
		}
		if f.MinDiscount != nil && p.Discount < *f.MinDiscount {
			continue
		}
		if f.InStock != nil && p.InStock != *f.InStock {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}
