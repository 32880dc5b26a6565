package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
)

type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, supplier_id, unit_price, stock, updated_at FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.SupplierID, &p.UnitPrice, &p.Stock, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get product: %w", err)
	}
	return &p, nil
}

// Save upserts the product row.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	if p.Stock < 0 {
		return domain.ErrNegativeStock
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, supplier_id, unit_price, stock, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), supplier_id = VALUES(supplier_id),
			unit_price = VALUES(unit_price), stock = VALUES(stock), updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.SupplierID, p.UnitPrice, p.Stock, r.now(),
	)
	if err != nil {
		return fmt.Errorf("mysql: save product: %w", err)
	}
	return nil
}

// DecrementClamped lets the server compute max(0, stock-quantity), so concurrent
// decrements never read-modify-write a stale value.
func (r *ProductRepository) DecrementClamped(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = GREATEST(stock - ?, 0), updated_at = ? WHERE id = ?`,
		quantity, r.now(), productID,
	)
	if err != nil {
		return 0, rollback(tx, fmt.Errorf("mysql: decrement stock: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, rollback(tx, fmt.Errorf("mysql: decrement stock: %w", err))
	}
	if n == 0 {
		return 0, rollback(tx, domain.ErrNotFound)
	}

	var stock int
	if err := tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock); err != nil {
		return 0, rollback(tx, fmt.Errorf("mysql: read stock: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit stock: %w", err)
	}
	return stock, nil
}
