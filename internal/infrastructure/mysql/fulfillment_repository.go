package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

const groupColumns = `order_id, supplier_id, position, subtotal, shipment_status, payment_status, paid_at, created_at, updated_at`

// FulfillmentRepository keeps one supplier_orders row per (order, supplier).
// Line items are read back from order_items.
type FulfillmentRepository struct {
	db *sql.DB
}

func NewFulfillmentRepository(db *sql.DB) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

func (r *FulfillmentRepository) SaveAll(ctx context.Context, groups []domain.Group) error {
	if len(groups) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO supplier_orders (` + groupColumns + `) VALUES `)
	args := make([]any, 0, len(groups)*9)
	for i, g := range groups {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(" + placeholders(9) + ")")
		args = append(args, g.OrderID, g.SupplierID, g.Position, g.Subtotal,
			g.Shipment.String(), string(g.Payment), nullTime(g.PaidAt), g.CreatedAt, g.UpdatedAt)
	}
	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("mysql: save supplier orders: %w", err)
	}
	return nil
}

func (r *FulfillmentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Group, error) {
	groups, err := r.query(ctx, `SELECT `+groupColumns+` FROM supplier_orders WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, groups, `order_id = ?`, orderID); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *FulfillmentRepository) Get(ctx context.Context, orderID, supplierID string) (*domain.Group, error) {
	groups, err := r.query(ctx, `SELECT `+groupColumns+` FROM supplier_orders WHERE order_id = ? AND supplier_id = ?`, orderID, supplierID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, domain.ErrNotFound
	}
	if err := r.loadItems(ctx, groups, `order_id = ? AND supplier_id = ?`, orderID, supplierID); err != nil {
		return nil, err
	}
	return &groups[0], nil
}

func (r *FulfillmentRepository) UpdateShipment(ctx context.Context, g *domain.Group, from domain.ShipmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE supplier_orders SET shipment_status = ?, updated_at = ?
		WHERE order_id = ? AND supplier_id = ? AND shipment_status = ?`,
		g.Shipment.String(), g.UpdatedAt, g.OrderID, g.SupplierID, from.String(),
	)
	if err != nil {
		return fmt.Errorf("mysql: update supplier shipment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql: update supplier shipment: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, _, err := r.state(ctx, g.OrderID, g.SupplierID); err != nil {
		return err
	}
	return fmt.Errorf("%w: shipment moved from %s", domain.ErrConflict, from)
}

// MarkPaid never touches a cancelled row.
func (r *FulfillmentRepository) MarkPaid(ctx context.Context, orderID, supplierID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE supplier_orders SET payment_status = ?, paid_at = ?, updated_at = ?
		WHERE order_id = ? AND supplier_id = ? AND payment_status <> ? AND shipment_status <> ?`,
		string(payment.StatusPaid), at, at, orderID, supplierID,
		string(payment.StatusPaid), domain.ShipmentCancelled.String(),
	)
	if err != nil {
		return false, fmt.Errorf("mysql: mark supplier paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mysql: mark supplier paid: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	shipment, paid, err := r.state(ctx, orderID, supplierID)
	switch {
	case err != nil:
		return false, err
	case paid == string(payment.StatusPaid):
		return false, nil
	case shipment == domain.ShipmentCancelled.String():
		return false, domain.ErrGroupCancelled
	}
	return false, fmt.Errorf("%w: payout not recorded", domain.ErrConflict)
}

func (r *FulfillmentRepository) state(ctx context.Context, orderID, supplierID string) (shipment, paid string, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT shipment_status, payment_status FROM supplier_orders WHERE order_id = ? AND supplier_id = ?`,
		orderID, supplierID,
	).Scan(&shipment, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", domain.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("mysql: read supplier order: %w", err)
	}
	return shipment, paid, nil
}

func (r *FulfillmentRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Group, error) {
	groups, err := r.query(ctx, `SELECT `+groupColumns+` FROM supplier_orders WHERE supplier_id = ? ORDER BY created_at, order_id`, supplierID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, groups, `supplier_id = ?`, supplierID); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *FulfillmentRepository) query(ctx context.Context, q string, args ...any) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: query supplier orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var (
			g        domain.Group
			shipment string
			pay      string
			paidAt   sql.NullTime
		)
		if err := rows.Scan(&g.OrderID, &g.SupplierID, &g.Position, &g.Subtotal, &shipment, &pay, &paidAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("mysql: scan supplier order: %w", err)
		}
		if g.Shipment, err = domain.ParseShipmentStatus(shipment); err != nil {
			return nil, err
		}
		g.Payment = payment.Status(pay)
		if paidAt.Valid {
			g.PaidAt = paidAt.Time
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: query supplier orders: %w", err)
	}
	return out, nil
}

// loadItems attaches order_items rows matching where to their (order, supplier) group.
func (r *FulfillmentRepository) loadItems(ctx context.Context, groups []domain.Group, where string, args ...any) error {
	if len(groups) == 0 {
		return nil
	}
	index := make(map[[2]string]int, len(groups))
	for i, g := range groups {
		index[[2]string{g.OrderID, g.SupplierID}] = i
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE `+where+` ORDER BY order_id, position`, args...)
	if err != nil {
		return fmt.Errorf("mysql: load group items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       order.LineItem
			position int
		)
		if err := rows.Scan(&it.OrderID, &position, &it.ProductID, &it.SupplierID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return fmt.Errorf("mysql: scan group item: %w", err)
		}
		if i, ok := index[[2]string{it.OrderID, it.SupplierID}]; ok {
			groups[i].Items = append(groups[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("mysql: load group items: %w", err)
	}
	return nil
}
