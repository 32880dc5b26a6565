package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
)

type InventoryRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewInventoryRepository(seed ...*domain.Product) *InventoryRepository {
	r := &InventoryRepository{products: make(map[string]*domain.Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = cloneProduct(p)
	}
	return r
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *InventoryRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil {
		return nil
	}
	if product.Stock < 0 {
		return domain.ErrNegativeStock
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *InventoryRepository) DecrementClamped(ctx context.Context, productID string, quantity int) (int, error) {
	_ = ctx
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.Stock = domain.Clamp(p.Stock, quantity)
	p.UpdatedAt = time.Now().UTC()
	return p.Stock, nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
