package enums

import "fmt"

// DiscountType distinguishes percentage discounts from flat amounts.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFlat    DiscountType = "flat"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercent,
	DiscountTypeFlat,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
