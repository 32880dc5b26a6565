// Package cart is the buyer's session-scoped basket. A Cart is an explicit handle owned by a
// checkout session; there is no package-level state.
package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("cart: unit price must not be negative")
	ErrMissingProduct  = errors.New("cart: product id is required")
	ErrMissingSupplier = errors.New("cart: supplier id is required")
	ErrItemNotFound    = errors.New("cart: item not found")
)

type Item struct {
	ProductID  string          `json:"product_id"`
	SupplierID string          `json:"supplier_id"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// LineTotal is UnitPrice × Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) validate() error {
	switch {
	case i.ProductID == "":
		return ErrMissingProduct
	case i.SupplierID == "":
		return ErrMissingSupplier
	case i.Quantity <= 0:
		return ErrInvalidQuantity
	case i.UnitPrice.IsNegative():
		return ErrInvalidPrice
	}
	return nil
}

// Cart keeps items in insertion order. Safe for concurrent use.
type Cart struct {
	mu    sync.RWMutex
	items []Item
}

func New() *Cart { return &Cart{} }

// Add appends item, or increases the quantity when the product is already present.
// The price and supplier of an existing line are refreshed from item.
func (c *Cart) Add(item Item) error {
	if err := item.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += item.Quantity
			c.items[i].UnitPrice = item.UnitPrice
			c.items[i].SupplierID = item.SupplierID
			return nil
		}
	}
	c.items = append(c.items, item)
	return nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return c.Remove(productID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Remove(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.Items())
}

// Subtotal sums the line totals of items.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
