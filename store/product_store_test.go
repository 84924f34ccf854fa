package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mabletask/companion/models"
)

func ptr[T any](v T) *T { return &v }

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestLoadProducts_Embedded(t *testing.T) {
	s, err := LoadProducts("")
	require.NoError(t, err)

	all := s.Filter(models.ProductFilter{})
	assert.Len(t, all, 18)
	assert.Equal(t, "shoe-001", all[0].ID)

	p, err := s.Get("shoe-017")
	require.NoError(t, err)
	assert.Equal(t, "Patent Leather Heels", p.Name)

	_, err = s.Get("shoe-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadProducts_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","name":"A"},{"id":"a","name":"B"}]`), 0o600))
	_, err := LoadProducts(path)
	assert.ErrorContains(t, err, "duplicate product id")

	_, err = LoadProducts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestProductStore_Filter(t *testing.T) {
	s, err := LoadProducts("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter models.ProductFilter
		want   []string
	}{
		{
			name:   "category list",
			filter: models.ProductFilter{Category: "work, outdoor"},
			want:   []string{"shoe-004", "shoe-005", "shoe-009", "shoe-010", "shoe-014", "shoe-015"},
		},
		{
			name:   "b2b only",
			filter: models.ProductFilter{CustomerType: "b2b", Category: "work"},
			want:   []string{"shoe-005", "shoe-010", "shoe-015"},
		},
		{
			name:   "b2c excludes b2b-only",
			filter: models.ProductFilter{CustomerType: "b2c", Category: "work"},
			want:   []string{"shoe-015"},
		},
		{
			name:   "all customer types",
			filter: models.ProductFilter{CustomerType: "all", Category: "work"},
			want:   []string{"shoe-005", "shoe-010", "shoe-015"},
		},
		{
			name:   "price range inclusive",
			filter: models.ProductFilter{MinPrice: ptr(59.99), MaxPrice: ptr(69.5)},
			want:   []string{"shoe-012", "shoe-015"},
		},
		{
			name:   "no discount",
			filter: models.ProductFilter{HasDiscount: ptr(false), Category: "formal"},
			want:   []string{"shoe-001", "shoe-013"},
		},
		{
			name:   "min discount",
			filter: models.ProductFilter{MinDiscount: ptr(30.0)},
			want:   []string{"shoe-008", "shoe-014", "shoe-017"},
		},
		{
			name:   "out of stock",
			filter: models.ProductFilter{InStock: ptr(false)},
			want:   []string{"shoe-004", "shoe-010", "shoe-018"},
		},
		{
			name:   "search name and description",
			filter: models.ProductFilter{Search: "TRAIL"},
			want:   []string{"shoe-002"},
		},
		{
			name:   "search description",
			filter: models.ProductFilter{Search: "memory foam"},
			want:   []string{"shoe-018"},
		},
		{
			name:   "nothing matches",
			filter: models.ProductFilter{Category: "sandals"},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.Filter(tt.filter)))
		})
	}
}

func TestProductStore_Records(t *testing.T) {
	s, err := LoadProducts("")
	require.NoError(t, err)

	recs, err := s.Records([]string{"shoe-003", "shoe-001"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "shoe-003", recs[0].ID)
	require.NotNil(t, recs[0].Discount)
	assert.Equal(t, 10.0, *recs[0].Discount)

	_, err = s.Records([]string{"shoe-001", "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}
