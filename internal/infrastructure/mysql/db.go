package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const errDuplicateEntry = 1062

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingAttempts    int
	PingInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.PingAttempts <= 0 {
		c.PingAttempts = 5
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 2 * time.Second
	}
	return c
}

// Open connects and waits for the server to answer a ping.
// parseTime and clientFoundRows are forced on: scans rely on the first,
// RowsAffected-based not-found checks on the second.
func Open(ctx context.Context, cfg Config, logger observability.Logger) (*sql.DB, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = observability.NopLogger()
	}

	dc, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	dc.ParseTime = true
	dc.ClientFoundRows = true
	dc.Loc = time.UTC

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	for attempt := 1; attempt <= cfg.PingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info("mysql_connected", observability.F("addr", dc.Addr), observability.F("db", dc.DBName))
			return db, nil
		}
		logger.Warn("mysql_ping_failed",
			observability.F("attempt", attempt),
			observability.F("max_attempts", cfg.PingAttempts),
			observability.F("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.PingInterval):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("mysql: no answer after %d attempts: %w", cfg.PingAttempts, err)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		supplier_id VARCHAR(64) NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_products_supplier (supplier_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(64) PRIMARY KEY,
		buyer_id VARCHAR(64) NOT NULL,
		idempotency_key VARCHAR(128) NULL,
		status VARCHAR(16) NOT NULL,
		ship_name VARCHAR(255) NOT NULL,
		ship_email VARCHAR(255) NOT NULL,
		ship_phone VARCHAR(64) NOT NULL,
		ship_line1 VARCHAR(255) NOT NULL,
		ship_line2 VARCHAR(255) NOT NULL DEFAULT '',
		ship_city VARCHAR(128) NOT NULL,
		ship_region VARCHAR(128) NOT NULL,
		ship_postal_code VARCHAR(32) NOT NULL DEFAULT '',
		shipping_fee DECIMAL(12,2) NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		total DECIMAL(12,2) NOT NULL,
		payment_method VARCHAR(48) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		payment_reference VARCHAR(128) NOT NULL DEFAULT '',
		notes TEXT,
		cancel_reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_orders_idempotency (buyer_id, idempotency_key),
		INDEX idx_orders_created (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		supplier_id VARCHAR(64) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		line_total DECIMAL(12,2) NOT NULL,
		PRIMARY KEY (order_id, position),
		INDEX idx_order_items_supplier (supplier_id),
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`,
	`CREATE TABLE IF NOT EXISTS supplier_orders (
		order_id VARCHAR(64) NOT NULL,
		supplier_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		shipment_status VARCHAR(16) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		paid_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (order_id, supplier_id),
		INDEX idx_supplier_orders_supplier (supplier_id),
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`,
}

// InitSchema creates missing tables. Existing tables are left as they are.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: init schema: %w", err)
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return errors.Join(err, rbErr)
	}
	return err
}
