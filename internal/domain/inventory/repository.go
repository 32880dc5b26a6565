package inventory

import "context"

type Repository interface {
	Get(ctx context.Context, productID string) (*Product, error)
	Save(ctx context.Context, product *Product) error
	// DecrementClamped atomically sets stock to max(0, stock-quantity) and returns the new value.
	DecrementClamped(ctx context.Context, productID string, quantity int) (int, error)
}
