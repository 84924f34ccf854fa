package assistant

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"mabletask/companion/models"
	"mabletask/companion/utils"
)

var (
	filtersBlock     = regexp.MustCompile("(?s)```filters\\s*\\n(.*?)\\n```")
	filtersBlockTail = regexp.MustCompile("(?s)```filters\\s*\\n.*?\\n```\\s*")
	extraBlankLines  = regexp.MustCompile(`\n{3,}`)
)

// ExtractFilters parses the first filters block of reply. It returns nil
// when there is no block, it is not valid JSON, or no field survives
// validation.
func ExtractFilters(reply string) *models.ProductFilter {
	m := filtersBlock.FindStringSubmatch(reply)
	if m == nil {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
		slog.Warn("assistant: unparsable filters block", "error", err)
		return nil
	}

	var f models.ProductFilter
	if c, ok := raw["category"].(string); ok {
		c = strings.TrimSpace(c)
		if c != "" && c != "empty" && c != "null" {
			f.Category = c
		}
	}
	if t, ok := raw["customer_type"].(string); ok && t != "" && utils.IsValidCustomerType(t) {
		f.CustomerType = t
	}
	f.MinPrice = number(raw["min_price"])
	f.MaxPrice = number(raw["max_price"])
	f.MinDiscount = number(raw["min_discount"])
	if v, ok := raw["has_discount"].(bool); ok {
		f.HasDiscount = &v
	}
	if v, ok := raw["in_stock"].(bool); ok {
		f.InStock = &v
	}

	if f.IsZero() {
		return nil
	}
	return &f
}

// StripFilters removes every filters block from reply and tidies the
// blank lines left behind.
func StripFilters(reply string) string {
	out := filtersBlockTail.ReplaceAllString(reply, "")
	out = extraBlankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func number(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
