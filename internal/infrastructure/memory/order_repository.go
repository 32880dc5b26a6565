package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
)

// OrderRepository keeps headers and line items together so an insert is all-or-nothing.
type OrderRepository struct {
	mu          sync.RWMutex
	orders      map[string]*domain.Order
	idempotency map[string]string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:      make(map[string]*domain.Order),
		idempotency: make(map[string]string),
	}
}

func idempotencyKey(buyerID, key string) string {
	return buyerID + "\x00" + key
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	if order.IdempotencyKey != "" {
		if _, exists := r.idempotency[idempotencyKey(order.BuyerID, order.IdempotencyKey)]; exists {
			return domain.ErrConflict
		}
	}

	r.orders[order.ID] = order.Clone()
	if order.IdempotencyKey != "" {
		r.idempotency[idempotencyKey(order.BuyerID, order.IdempotencyKey)] = order.ID
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

// UpdateStatus is a compare-and-set on the status; totals, items and the payment
// status stay as stored.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[order.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: status is %s, not %s", domain.ErrConflict, stored.Status, from)
	}
	stored.Status = order.Status
	stored.CancelReason = order.CancelReason
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[id]
	if !exists {
		return false, domain.ErrNotFound
	}
	return stored.MarkPaid(at), nil
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	orderID, ok := r.idempotency[idempotencyKey(buyerID, key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order, found := r.orders[orderID]
	if !found {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Matches(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
