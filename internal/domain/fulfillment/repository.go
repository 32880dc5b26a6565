package fulfillment

import (
	"context"
	"time"
)

type Repository interface {
	// SaveAll inserts groups that do not exist yet; existing (order, supplier) rows are left untouched.
	SaveAll(ctx context.Context, groups []Group) error
	// ListByOrder returns groups ordered by Position.
	ListByOrder(ctx context.Context, orderID string) ([]Group, error)
	Get(ctx context.Context, orderID, supplierID string) (*Group, error)
	// UpdateShipment writes the group's shipment status only while the stored status is
	// still from, and returns ErrConflict otherwise. Payout fields are never written.
	UpdateShipment(ctx context.Context, group *Group, from ShipmentStatus) error
	// MarkPaid records the payout in place. It reports false when the group was already
	// paid and returns ErrGroupCancelled for a cancelled group.
	MarkPaid(ctx context.Context, orderID, supplierID string, at time.Time) (bool, error)
	// ListBySupplier returns one supplier's groups across orders, oldest first.
	ListBySupplier(ctx context.Context, supplierID string) ([]Group, error)
}
