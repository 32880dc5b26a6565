package order

import (
	"context"

	"github.com/shopspring/decimal"

	appinv "github.com/Barrister1990/agrilink-sub000/internal/application/inventory"
)

type IDGenerator interface {
	NewID() string
}

// FeeTable resolves the shipping fee for a region.
type FeeTable interface {
	Fee(region string) decimal.Decimal
}

// StockAdjuster is the inventory adjustment use case.
type StockAdjuster interface {
	Execute(ctx context.Context, in appinv.AdjustStockInput) (appinv.AdjustStockResult, error)
}
