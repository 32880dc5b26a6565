package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

const orderColumns = `id, buyer_id, idempotency_key, status,
	ship_name, ship_email, ship_phone, ship_line1, ship_line2, ship_city, ship_region, ship_postal_code,
	shipping_fee, subtotal, total, payment_method, payment_status, payment_reference,
	notes, cancel_reason, created_at, updated_at`

const itemColumns = `order_id, position, product_id, supplier_id, quantity, unit_price, line_total`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Insert writes the header and all line items in one transaction.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if len(o.Items) == 0 {
		return domain.ErrNoItems
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (`+placeholders(22)+`)`,
		o.ID, o.BuyerID, nullString(o.IdempotencyKey), o.Status.String(),
		o.Shipping.Name, o.Shipping.Email, o.Shipping.Phone, o.Shipping.Line1, o.Shipping.Line2,
		o.Shipping.City, o.Shipping.Region, o.Shipping.PostalCode,
		o.ShippingFee, o.Subtotal, o.Total,
		o.PaymentMethod.Channel(), string(o.PaymentStatus), o.PaymentReference,
		o.Notes, o.CancelReason, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return rollback(tx, domain.ErrConflict)
		}
		return rollback(tx, fmt.Errorf("mysql: insert order: %w", err))
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (` + itemColumns + `) VALUES `)
	args := make([]any, 0, len(o.Items)*7)
	for i, it := range o.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(" + placeholders(7) + ")")
		args = append(args, o.ID, i, it.ProductID, it.SupplierID, it.Quantity, it.UnitPrice, it.LineTotal)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return rollback(tx, fmt.Errorf("mysql: insert order items: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mysql: commit order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE buyer_id = ? AND idempotency_key = ?`, buyerID, key,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: find by idempotency: %w", err)
	}
	return r.Get(ctx, id)
}

// UpdateStatus guards on the stored status so a stale writer cannot roll it back.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, from domain.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, cancel_reason = ?, updated_at = ? WHERE id = ? AND status = ?`,
		o.Status.String(), o.CancelReason, o.UpdatedAt, o.ID, from.String(),
	)
	if err != nil {
		return fmt.Errorf("mysql: update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql: update order status: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := r.exists(ctx, o.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: status moved from %s", domain.ErrConflict, from)
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status <> ?`,
		string(payment.StatusPaid), at, id, string(payment.StatusPaid),
	)
	if err != nil {
		return false, fmt.Errorf("mysql: mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mysql: mark order paid: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if err := r.exists(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *OrderRepository) exists(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mysql: read order: %w", err)
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.BuyerID != "" {
		where = append(where, "o.buyer_id = ?")
		args = append(args, f.BuyerID)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "o.status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s.String())
		}
	}
	if !f.CreatedFrom.IsZero() {
		where = append(where, "o.created_at >= ?")
		args = append(args, f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		where = append(where, "o.created_at < ?")
		args = append(args, f.CreatedTo)
	}
	if f.SupplierID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.supplier_id = ?)")
		args = append(args, f.SupplierID)
	}

	q := `SELECT ` + prefixed("o.", orderColumns) + ` FROM orders o`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY o.created_at, o.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: list orders: %w", err)
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		args = append(args, o.ID)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (`+placeholders(len(args))+`) ORDER BY order_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mysql: load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       domain.LineItem
			position int
		)
		if err := rows.Scan(&it.OrderID, &position, &it.ProductID, &it.SupplierID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return fmt.Errorf("mysql: scan item: %w", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("mysql: load items: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		key       sql.NullString
		status    string
		method    string
		payStatus string
		notes     sql.NullString
	)
	err := s.Scan(
		&o.ID, &o.BuyerID, &key, &status,
		&o.Shipping.Name, &o.Shipping.Email, &o.Shipping.Phone, &o.Shipping.Line1, &o.Shipping.Line2,
		&o.Shipping.City, &o.Shipping.Region, &o.Shipping.PostalCode,
		&o.ShippingFee, &o.Subtotal, &o.Total,
		&method, &payStatus, &o.PaymentReference,
		&notes, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: scan order: %w", err)
	}
	o.IdempotencyKey = key.String
	o.Notes = notes.String
	if o.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	if o.PaymentMethod, err = payment.ParseMethod(method); err != nil {
		return nil, err
	}
	o.PaymentStatus = payment.Status(payStatus)
	return &o, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
