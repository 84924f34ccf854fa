// Package assistant turns a viewport snapshot, the user's preferences and
// the conversation so far into a chat completion.
package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"mabletask/companion/visibility"
)

// FormatSnapshot renders s as the page context block given to the model.
func FormatSnapshot(s visibility.Snapshot) string {
	var b strings.Builder

	pageURL := s.PageURL
	if pageURL == "" {
		pageURL = "Unknown"
	}
	fmt.Fprintf(&b, "User is browsing page: %s\n", pageURL)
	fmt.Fprintf(&b, "Total products tracked: %d (Visible: %d, Above fold: %d, Below fold: %d)\n",
		s.Total(), len(s.VisibleProducts), len(s.AboveFoldProducts), len(s.BelowFoldProducts))

	if len(s.VisibleProducts) == 0 {
		b.WriteString("\nVISIBLE PRODUCTS: None currently on screen.\n")
	} else {
		b.WriteString("\nVISIBLE PRODUCTS (currently on screen):\n")
		writeProducts(&b, s.VisibleProducts)
	}
	if len(s.AboveFoldProducts) > 0 {
		fmt.Fprintf(&b, "\nABOVE THE FOLD (%d products - user scrolled past these):\n", len(s.AboveFoldProducts))
		writeProducts(&b, s.AboveFoldProducts)
	}
	if len(s.BelowFoldProducts) > 0 {
		fmt.Fprintf(&b, "\nBELOW THE FOLD (%d products - require scrolling down):\n", len(s.BelowFoldProducts))
		writeProducts(&b, s.BelowFoldProducts)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeProducts(b *strings.Builder, products []visibility.ProductEntry) {
	for i, p := range products {
		name := p.Name
		if name == "" {
			name = "Unknown Product"
		}
		parts := []string{fmt.Sprintf("%d. %s (ID: %s)", i+1, name, p.ID)}
		if p.Category != "" {
			parts = append(parts, "Category: "+p.Category)
		}
		if p.Price != 0 {
			parts = append(parts, "Price: $"+formatNumber(p.Price))
		}
		if p.Discount != nil && *p.Discount != 0 {
			parts = append(parts, "Discount: "+formatNumber(*p.Discount)+"% off")
		}
		if p.Description != "" {
			parts = append(parts, "Description: "+p.Description)
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteByte('\n')
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
