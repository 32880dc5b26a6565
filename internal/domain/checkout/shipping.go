package checkout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/cart"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/shipping"
)

// ShippingInfo is the form captured on the first checkout step.
type ShippingInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	City          string `json:"city"`
	Region        string `json:"region"`
	PostalCode    string `json:"postal_code,omitempty"`
	Notes         string `json:"notes,omitempty"`
	SaveAsDefault bool   `json:"save_as_default"`
}

// ValidationError lists the offending fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "checkout: invalid " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// Normalized trims whitespace and canonicalises the region.
func (s ShippingInfo) Normalized() ShippingInfo {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.AddressLine1 = strings.TrimSpace(s.AddressLine1)
	s.AddressLine2 = strings.TrimSpace(s.AddressLine2)
	s.City = strings.TrimSpace(s.City)
	s.Region = shipping.Normalize(s.Region)
	s.PostalCode = strings.TrimSpace(s.PostalCode)
	s.Notes = strings.TrimSpace(s.Notes)
	return s
}

// Validate returns a *ValidationError naming every missing or malformed required field.
func (s ShippingInfo) Validate() error {
	s = s.Normalized()
	verr := &ValidationError{}
	required := []struct{ field, value string }{
		{"name", s.Name},
		{"email", s.Email},
		{"phone", s.Phone},
		{"address_line1", s.AddressLine1},
		{"city", s.City},
		{"region", s.Region},
	}
	for _, r := range required {
		if r.value == "" {
			verr.add(r.field, "is required")
		}
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		verr.add("email", "must be a valid email address")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Summary is the read-only breakdown shown on the delivery step. KnownRegion is false
// when the fee is the fallback for a region outside the table.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	KnownRegion bool            `json:"known_region"`
}

func Summarize(items []cart.Item, fees *shipping.Table, region string) Summary {
	subtotal := cart.Subtotal(items)
	fee := fees.Fee(region)
	return Summary{Subtotal: subtotal, ShippingFee: fee, Total: subtotal.Add(fee), KnownRegion: fees.Known(region)}
}
