package utils

// IsValidCustomerType accepts the customer_type values understood by the
// catalog filter. "all" disables the filter.
func IsValidCustomerType(t string) bool {
	switch t {
	case "", "all", "b2b", "b2c":
		return true
	default:
		return false
	}
}

// IsValidCategory reports whether c is a catalog category.
func IsValidCategory(c string) bool {
	switch c {
	case "formal", "athletic", "casual", "outdoor", "work":
		return true
	default:
		return false
	}
}
