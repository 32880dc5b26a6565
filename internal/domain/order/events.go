package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

// OrderPlacedEvent is emitted once an order and its line items are persisted.
type OrderPlacedEvent struct {
	OrderID    string
	BuyerID    string
	Total      decimal.Decimal
	ItemCount  int
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Total:      o.Total,
		ItemCount:  o.ItemCount(),
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted after a staff status transition.
type OrderStatusChangedEvent struct {
	OrderID    string
	From       Status
	To         Status
	Reason     string
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		From:       from,
		To:         o.Status,
		Reason:     o.CancelReason,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderPaymentStatusChangedEvent is emitted when the order-level payment status moves.
type OrderPaymentStatusChangedEvent struct {
	OrderID    string
	Status     payment.Status
	OccurredAt time.Time
}

func (OrderPaymentStatusChangedEvent) EventName() string { return "order.payment_status_changed" }

func NewOrderPaymentStatusChangedEvent(o *Order) OrderPaymentStatusChangedEvent {
	return OrderPaymentStatusChangedEvent{
		OrderID:    o.ID,
		Status:     o.PaymentStatus,
		OccurredAt: time.Now().UTC(),
	}
}
