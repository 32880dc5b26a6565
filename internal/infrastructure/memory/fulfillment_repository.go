package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
)

type groupKey struct{ orderID, supplierID string }

type FulfillmentRepository struct {
	mu     sync.RWMutex
	groups map[groupKey]domain.Group
}

func NewFulfillmentRepository() *FulfillmentRepository {
	return &FulfillmentRepository{groups: make(map[groupKey]domain.Group)}
}

func (r *FulfillmentRepository) SaveAll(ctx context.Context, groups []domain.Group) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range groups {
		k := groupKey{g.OrderID, g.SupplierID}
		if _, exists := r.groups[k]; exists {
			continue
		}
		r.groups[k] = g.Clone()
	}
	return nil
}

func (r *FulfillmentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Group, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Group
	for k, g := range r.groups {
		if k.orderID == orderID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *FulfillmentRepository) Get(ctx context.Context, orderID, supplierID string) (*domain.Group, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupKey{orderID, supplierID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := g.Clone()
	return &clone, nil
}

func (r *FulfillmentRepository) UpdateShipment(ctx context.Context, group *domain.Group, from domain.ShipmentStatus) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	k := groupKey{group.OrderID, group.SupplierID}
	stored, ok := r.groups[k]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Shipment != from {
		return fmt.Errorf("%w: shipment is %s, not %s", domain.ErrConflict, stored.Shipment, from)
	}
	stored.Shipment = group.Shipment
	stored.UpdatedAt = group.UpdatedAt
	r.groups[k] = stored
	return nil
}

func (r *FulfillmentRepository) MarkPaid(ctx context.Context, orderID, supplierID string, at time.Time) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	k := groupKey{orderID, supplierID}
	stored, ok := r.groups[k]
	if !ok {
		return false, domain.ErrNotFound
	}
	changed, err := stored.MarkPaid(at)
	if err != nil || !changed {
		return false, err
	}
	r.groups[k] = stored
	return true, nil
}

func (r *FulfillmentRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Group, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Group
	for k, g := range r.groups {
		if k.supplierID == supplierID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
