package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrNoItems           = errors.New("order: at least one line item is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount     = errors.New("order: amount must be zero or greater")
	ErrTotalsMismatch    = errors.New("order: totals do not reconcile")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrPersistence marks any failed write against the order store.
	ErrPersistence = errors.New("order: persistence failure")
)

// Address is the shipping snapshot taken at checkout.
type Address struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code,omitempty"`
}

type LineItem struct {
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	SupplierID string          `json:"supplier_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// Order is never deleted; after creation only Status and PaymentStatus change.
type Order struct {
	ID               string
	BuyerID          string
	IdempotencyKey   string
	Status           Status
	Shipping         Address
	ShippingFee      decimal.Decimal
	Subtotal         decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    payment.Method
	PaymentStatus    payment.Status
	PaymentReference string
	Notes            string
	CancelReason     string
	Items            []LineItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type LineInput struct {
	ProductID  string
	SupplierID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

type Params struct {
	ID               string
	BuyerID          string
	IdempotencyKey   string
	Shipping         Address
	ShippingFee      decimal.Decimal
	PaymentMethod    payment.Method
	PaymentStatus    payment.Status
	PaymentReference string
	Notes            string
	Lines            []LineInput
	Now              time.Time
}

// New builds a Pending order, deriving line totals, subtotal and total from the inputs.
func New(p Params) (*Order, error) {
	if len(p.Lines) == 0 {
		return nil, ErrNoItems
	}
	if p.ShippingFee.IsNegative() {
		return nil, ErrInvalidAmount
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	items := make([]LineItem, 0, len(p.Lines))
	subtotal := decimal.Zero
	for _, l := range p.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, l.ProductID)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidAmount, l.ProductID)
		}
		total := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(total)
		items = append(items, LineItem{
			OrderID:    p.ID,
			ProductID:  l.ProductID,
			SupplierID: l.SupplierID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			LineTotal:  total,
		})
	}

	status := p.PaymentStatus
	if status == "" {
		status = payment.StatusPending
	}

	return &Order{
		ID:               p.ID,
		BuyerID:          p.BuyerID,
		IdempotencyKey:   p.IdempotencyKey,
		Status:           StatusPending,
		Shipping:         p.Shipping,
		ShippingFee:      p.ShippingFee,
		Subtotal:         subtotal,
		Total:            subtotal.Add(p.ShippingFee),
		PaymentMethod:    p.PaymentMethod,
		PaymentStatus:    status,
		PaymentReference: p.PaymentReference,
		Notes:            p.Notes,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Validate re-checks the money invariants, e.g. after loading from storage.
func (o *Order) Validate() error {
	sum := decimal.Zero
	for _, it := range o.Items {
		if !it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.LineTotal) {
			return fmt.Errorf("%w: line %s", ErrTotalsMismatch, it.ProductID)
		}
		sum = sum.Add(it.LineTotal)
	}
	if !sum.Equal(o.Subtotal) {
		return fmt.Errorf("%w: subtotal", ErrTotalsMismatch)
	}
	if !o.Subtotal.Add(o.ShippingFee).Equal(o.Total) {
		return fmt.Errorf("%w: total", ErrTotalsMismatch)
	}
	return nil
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// SupplierIDs lists suppliers in first-appearance order.
func (o *Order) SupplierIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	var out []string
	for _, it := range o.Items {
		if _, ok := seen[it.SupplierID]; ok {
			continue
		}
		seen[it.SupplierID] = struct{}{}
		out = append(out, it.SupplierID)
	}
	return out
}

// MarkPaid sets the order-level payment status to paid.
func (o *Order) MarkPaid(now time.Time) bool {
	if o.PaymentStatus == payment.StatusPaid {
		return false
	}
	o.PaymentStatus = payment.StatusPaid
	o.UpdatedAt = now
	return true
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
