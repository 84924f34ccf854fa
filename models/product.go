package models

import "mabletask/companion/visibility"

type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	Discount     float64 `json:"discount"`
	B2BAvailable bool    `json:"b2b_available"`
	B2CAvailable bool    `json:"b2c_available"`
	Image        string  `json:"image"`
	InStock      bool    `json:"in_stock"`
}

// Record converts a catalog product into the tracker's read-only record.
func (p Product) Record() visibility.Record {
	discount := p.Discount
	return visibility.Record{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		Discount:     &discount,
		Description:  p.Description,
		InStock:      p.InStock,
		B2BAvailable: p.B2BAvailable,
		B2CAvailable: p.B2CAvailable,
	}
}

// ProductFilter holds the catalog query parameters. It is also the shape of
// the filter block the assistant may suggest.
type ProductFilter struct {
	Category     string   `form:"category" json:"category,omitempty"`
	CustomerType string   `form:"customer_type" json:"customer_type,omitempty"`
	MinPrice     *float64 `form:"min_price" json:"min_price,omitempty"`
	MaxPrice     *float64 `form:"max_price" json:"max_price,omitempty"`
	HasDiscount  *bool    `form:"has_discount" json:"has_discount,omitempty"`
	MinDiscount  *float64 `form:"min_discount" json:"min_discount,omitempty"`
	InStock      *bool    `form:"in_stock" json:"in_stock,omitempty"`
	Search       string   `form:"search" json:"search,omitempty"`
}

// IsZero reports whether no filter field is set.
func (f ProductFilter) IsZero() bool {
	return f == ProductFilter{}
}

type ProductList struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}
