package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("inventory: product not found")
	ErrInvalidQuantity = errors.New("inventory: quantity must be greater than zero")
	ErrNegativeStock   = errors.New("inventory: stock cannot be negative")
	// ErrStockRead marks a product whose stock could not be read or updated.
	ErrStockRead = errors.New("inventory: stock read failed")
)

// Product is the catalog record the checkout pipeline reads and decrements.
type Product struct {
	ID         string
	Name       string
	SupplierID string
	UnitPrice  decimal.Decimal
	Stock      int
	UpdatedAt  time.Time
}

func NewProduct(id, name, supplierID string, price decimal.Decimal, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	return &Product{
		ID:         id,
		Name:       name,
		SupplierID: supplierID,
		UnitPrice:  price,
		Stock:      stock,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

// Clamp returns the post-decrement stock for a requested quantity; it never goes below zero.
func Clamp(stock, quantity int) int {
	if quantity >= stock {
		return 0
	}
	return stock - quantity
}

// StockReadError records which product failed and why.
type StockReadError struct {
	ProductID string
	Err       error
}

func (e *StockReadError) Error() string {
	return "inventory: stock read failed for " + e.ProductID + ": " + e.Err.Error()
}

func (e *StockReadError) Unwrap() []error { return []error{ErrStockRead, e.Err} }
