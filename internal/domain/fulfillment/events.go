package fulfillment

import (
	"time"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

// SupplierStatusChangedEvent is the notification seam for per-supplier shipment and payout changes.
type SupplierStatusChangedEvent struct {
	OrderID    string
	SupplierID string
	Shipment   ShipmentStatus
	Payment    payment.Status
	OccurredAt time.Time
}

func (SupplierStatusChangedEvent) EventName() string { return "fulfillment.supplier_status_changed" }

func NewSupplierStatusChangedEvent(g *Group) SupplierStatusChangedEvent {
	return SupplierStatusChangedEvent{
		OrderID:    g.OrderID,
		SupplierID: g.SupplierID,
		Shipment:   g.Shipment,
		Payment:    g.Payment,
		OccurredAt: time.Now().UTC(),
	}
}
