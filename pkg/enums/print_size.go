package enums

import "fmt"

// PrintSize enumerates the formats the kiosk can produce.
type PrintSize string

const (
	PrintSize4x6   PrintSize = "4x6"
	PrintSizeStrip PrintSize = "strip"
	PrintSize6x8   PrintSize = "6x8"
)

var validPrintSizes = []PrintSize{
	PrintSize4x6,
	PrintSizeStrip,
	PrintSize6x8,
}

// unitPriceBySize is the fixed price list in rupiah. Amounts are whole-unit
// integers; Midtrans gross_amount carries no minor units for IDR.
var unitPriceBySize = map[PrintSize]int64{
	PrintSize4x6:   10000,
	PrintSizeStrip: 15000,
	PrintSize6x8:   20000,
}

// String implements fmt.Stringer.
func (s PrintSize) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PrintSize.
func (s PrintSize) IsValid() bool {
	for _, candidate := range validPrintSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// UnitPrice returns the per-print price for the size.
func (s PrintSize) UnitPrice() int64 {
	return unitPriceBySize[s]
}

// ParsePrintSize converts raw input into a PrintSize.
func ParsePrintSize(value string) (PrintSize, error) {
	for _, candidate := range validPrintSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid print size %q", value)
}
