package inventory

import "time"

// StockChangedEvent is emitted after a successful decrement so catalog views can refresh.
type StockChangedEvent struct {
	OrderID    string
	ProductID  string
	Requested  int
	Stock      int
	OccurredAt time.Time
}

func (StockChangedEvent) EventName() string { return "inventory.stock_changed" }

func NewStockChangedEvent(orderID, productID string, requested, stock int) StockChangedEvent {
	return StockChangedEvent{
		OrderID:    orderID,
		ProductID:  productID,
		Requested:  requested,
		Stock:      stock,
		OccurredAt: time.Now().UTC(),
	}
}
