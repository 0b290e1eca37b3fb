// Package money holds the currency helpers shared by the cart, checkout and
// notification code. Amounts are always decimal.Decimal, never float64.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const Symbol = "€"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders an amount for display, e.g. €35.50.
func Format(d decimal.Decimal) string {
	return Symbol + d.StringFixed(2)
}

// Parse reads a price from configuration or CLI input. A leading currency
// symbol is accepted. Negative amounts are rejected.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), Symbol))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: negative", s)
	}
	return d.Round(2), nil
}
