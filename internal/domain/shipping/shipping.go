// Package shipping holds the region to delivery-fee lookup used at checkout.
package shipping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultFee applies to any region outside the table.
var DefaultFee = decimal.RequireFromString("15.99")

// Regions lists the sixteen delivery regions in display order.
var Regions = []string{
	"greater-accra",
	"ashanti",
	"western",
	"western-north",
	"central",
	"eastern",
	"volta",
	"oti",
	"bono",
	"bono-east",
	"ahafo",
	"northern",
	"savannah",
	"north-east",
	"upper-east",
	"upper-west",
}

var defaultFees = map[string]string{
	"greater-accra": "5.99",
	"ashanti":       "7.99",
	"western":       "9.99",
	"western-north": "12.99",
	"central":       "8.99",
	"eastern":       "8.99",
	"volta":         "10.99",
	"oti":           "13.99",
	"bono":          "11.99",
	"bono-east":     "12.99",
	"ahafo":         "12.99",
	"northern":      "14.99",
	"savannah":      "15.99",
	"north-east":    "15.99",
	"upper-east":    "16.99",
	"upper-west":    "16.99",
}

// Table is an immutable region → fee lookup with a default fallback.
type Table struct {
	fees       map[string]decimal.Decimal
	defaultFee decimal.Decimal
}

// DefaultTable returns the built-in sixteen-region table.
func DefaultTable() *Table {
	t, err := NewTable(defaultFees, DefaultFee.String())
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable parses fees given as decimal strings. Region keys are normalised.
func NewTable(fees map[string]string, defaultFee string) (*Table, error) {
	def, err := decimal.NewFromString(defaultFee)
	if err != nil {
		return nil, fmt.Errorf("shipping: default fee %q: %w", defaultFee, err)
	}
	if def.IsNegative() {
		return nil, fmt.Errorf("shipping: default fee must not be negative")
	}
	t := &Table{fees: make(map[string]decimal.Decimal, len(fees)), defaultFee: def}
	for region, raw := range fees {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("shipping: fee for %q: %w", region, err)
		}
		if fee.IsNegative() {
			return nil, fmt.Errorf("shipping: fee for %q must not be negative", region)
		}
		t.fees[Normalize(region)] = fee
	}
	return t, nil
}

// Fee returns the fee for region, or the default fee when the region is unknown.
func (t *Table) Fee(region string) decimal.Decimal {
	if fee, ok := t.fees[Normalize(region)]; ok {
		return fee
	}
	return t.defaultFee
}

// Known reports whether region has its own entry.
func (t *Table) Known(region string) bool {
	_, ok := t.fees[Normalize(region)]
	return ok
}

func (t *Table) Default() decimal.Decimal { return t.defaultFee }

// Normalize lowercases and hyphenates a region name ("Greater Accra" → "greater-accra").
func Normalize(region string) string {
	r := strings.ToLower(strings.TrimSpace(region))
	return strings.Join(strings.FieldsFunc(r, func(c rune) bool {
		return c == ' ' || c == '_' || c == '-'
	}), "-")
}
