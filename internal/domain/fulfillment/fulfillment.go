package fulfillment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

var (
	ErrNotFound          = errors.New("fulfillment: group not found")
	ErrInvalidTransition = errors.New("fulfillment: invalid shipment transition")
	ErrGroupCancelled    = errors.New("fulfillment: group is cancelled")
	// ErrConflict means the stored shipment moved since the group was read.
	ErrConflict = errors.New("fulfillment: concurrent shipment change")
)

// ShipmentStatus is tracked independently for every supplier of an order.
type ShipmentStatus uint8

const (
	ShipmentPending ShipmentStatus = iota + 1
	ShipmentProcessing
	ShipmentShipped
	ShipmentDelivered
	ShipmentCancelled
)

var shipmentNames = map[ShipmentStatus]string{
	ShipmentPending:    "pending",
	ShipmentProcessing: "processing",
	ShipmentShipped:    "shipped",
	ShipmentDelivered:  "delivered",
	ShipmentCancelled:  "cancelled",
}

// transitions lists the legal forward moves; cancellation is handled separately.
var transitions = map[ShipmentStatus]ShipmentStatus{
	ShipmentPending:    ShipmentProcessing,
	ShipmentProcessing: ShipmentShipped,
	ShipmentShipped:    ShipmentDelivered,
}

func (s ShipmentStatus) String() string {
	if n, ok := shipmentNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s ShipmentStatus) Terminal() bool {
	return s == ShipmentDelivered || s == ShipmentCancelled
}

// Next is the following forward status; terminal statuses have none.
func (s ShipmentStatus) Next() (ShipmentStatus, bool) {
	n, ok := transitions[s]
	return n, ok
}

// CanTransitionTo reports whether to is a legal next status.
func (s ShipmentStatus) CanTransitionTo(to ShipmentStatus) bool {
	if to == ShipmentCancelled {
		return !s.Terminal()
	}
	return transitions[s] == to
}

func ParseShipmentStatus(v string) (ShipmentStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, n := range shipmentNames {
		if n == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("fulfillment: unknown shipment status %q", v)
}

func (s ShipmentStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ShipmentStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseShipmentStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ShipmentFromOrder maps an order-level status onto a supplier shipment status.
func ShipmentFromOrder(s order.Status) ShipmentStatus {
	switch s {
	case order.StatusProcessing:
		return ShipmentProcessing
	case order.StatusShipped:
		return ShipmentShipped
	case order.StatusDelivered:
		return ShipmentDelivered
	case order.StatusCancelled:
		return ShipmentCancelled
	default:
		return ShipmentPending
	}
}

// Group is the per (order, supplier) fulfillment record.
type Group struct {
	OrderID    string
	SupplierID string
	Position   int
	Items      []order.LineItem
	Subtotal   decimal.Decimal
	Shipment   ShipmentStatus
	Payment    payment.Status
	PaidAt     time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GroupBySupplier partitions an order's line items by supplier in first-appearance order.
// Shipment is derived from the order status and payment mirrors the order payment status.
func GroupBySupplier(o *order.Order) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, it := range o.Items {
		i, ok := index[it.SupplierID]
		if !ok {
			i = len(groups)
			index[it.SupplierID] = i
			groups = append(groups, Group{
				OrderID:    o.ID,
				SupplierID: it.SupplierID,
				Position:   i,
				Subtotal:   decimal.Zero,
				Shipment:   ShipmentFromOrder(o.Status),
				Payment:    o.PaymentStatus,
				CreatedAt:  o.CreatedAt,
				UpdatedAt:  o.UpdatedAt,
			})
		}
		g := &groups[i]
		g.Items = append(g.Items, it)
		g.Subtotal = g.Subtotal.Add(it.LineTotal)
	}
	return groups
}

// Advance moves the shipment forward or to cancelled.
func (g *Group) Advance(to ShipmentStatus, now time.Time) error {
	if !g.Shipment.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, g.Shipment, to)
	}
	g.Shipment = to
	g.UpdatedAt = now
	return nil
}

// MarkPaid records the supplier payout. It reports false when already paid.
func (g *Group) MarkPaid(now time.Time) (bool, error) {
	if g.Payment == payment.StatusPaid {
		return false, nil
	}
	if g.Shipment == ShipmentCancelled {
		return false, ErrGroupCancelled
	}
	g.Payment = payment.StatusPaid
	g.PaidAt = now
	g.UpdatedAt = now
	return true, nil
}

func (g Group) Clone() Group {
	g.Items = append([]order.LineItem(nil), g.Items...)
	return g
}

// AllPaid reports whether every live group has been paid out. Cancelled groups never
// receive a payout and are skipped; an order with no live group is not paid.
func AllPaid(groups []Group) bool {
	live := 0
	for _, g := range groups {
		if g.Shipment == ShipmentCancelled {
			continue
		}
		if g.Payment != payment.StatusPaid {
			return false
		}
		live++
	}
	return live > 0
}
