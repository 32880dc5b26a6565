package order

import (
	"context"
	"time"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	SupplierID  string
	BuyerID     string
	Statuses    []Status
	CreatedFrom time.Time // inclusive
	CreatedTo   time.Time // exclusive
}

// Matches applies the filter to an in-memory order.
func (f Filter) Matches(o *Order) bool {
	if f.BuyerID != "" && o.BuyerID != f.BuyerID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if o.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !o.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	if f.SupplierID != "" {
		for _, it := range o.Items {
			if it.SupplierID == f.SupplierID {
				return true
			}
		}
		return false
	}
	return true
}

type Repository interface {
	// Insert stores the header and every line item atomically. A duplicate id or
	// (buyer, idempotency key) returns ErrConflict.
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus writes Status, CancelReason and UpdatedAt only while the stored status
	// is still from, and returns ErrConflict otherwise. PaymentStatus is never written.
	UpdateStatus(ctx context.Context, order *Order, from Status) error
	// MarkPaid sets the payment status to paid in place and reports whether it changed.
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
	FindByIdempotency(ctx context.Context, buyerID, key string) (*Order, error)
	// List returns matching orders, oldest first.
	List(ctx context.Context, filter Filter) ([]*Order, error)
}
