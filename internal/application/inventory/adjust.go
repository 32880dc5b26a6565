package inventory

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	inventoryService = "inventory-service"
	useCaseAdjust    = "inventory.adjust_stock"
)

type Line struct {
	ProductID string
	Quantity  int
}

type AdjustStockInput struct {
	OrderID string
	Lines   []Line
}

type Adjustment struct {
	ProductID string
	Requested int
	Stock     int
}

type AdjustStockResult struct {
	Adjusted []Adjustment
	// Skipped lists products whose stock could not be read or written.
	Skipped []*dominv.StockReadError
}

// AdjustStockUseCase decrements stock for every line of a placed order. A product
// that cannot be adjusted is logged and skipped; the order is never failed by it.
type AdjustStockUseCase struct {
	repo      dominv.Repository
	publisher domoutbox.Publisher
	tracker   *application.Tracker
	adjusted  observability.Counter // stock_adjustments_total{outcome}
}

var _ application.UseCase[AdjustStockInput, AdjustStockResult] = (*AdjustStockUseCase)(nil)

func NewAdjustStockUseCase(repo dominv.Repository, publisher domoutbox.Publisher, tel observability.Observability) *AdjustStockUseCase {
	return &AdjustStockUseCase{
		repo:      repo,
		publisher: publisher,
		tracker:   application.NewTracker(tel, inventoryService),
		adjusted:  observability.OrNop(tel).Metrics().Counter(observability.MStockAdjustments),
	}
}

func (uc *AdjustStockUseCase) Execute(ctx context.Context, in AdjustStockInput) (res AdjustStockResult, err error) {
	ctx, run := uc.tracker.Begin(ctx, useCaseAdjust, "AdjustStock",
		attribute.String("order.id", in.OrderID),
		attribute.Int("inventory.lines", len(in.Lines)),
	)
	defer func() {
		run.Field("adjusted", len(res.Adjusted))
		run.Field("skipped", len(res.Skipped))
		run.End(err)
	}()

	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			uc.skip(run, &res, l.ProductID, dominv.ErrInvalidQuantity)
			continue
		}
		stock, derr := uc.repo.DecrementClamped(ctx, l.ProductID, l.Quantity)
		if derr != nil {
			uc.skip(run, &res, l.ProductID, derr)
			continue
		}
		uc.adjusted.Add(1, observability.L("outcome", "adjusted"))
		res.Adjusted = append(res.Adjusted, Adjustment{ProductID: l.ProductID, Requested: l.Quantity, Stock: stock})
		_ = run.Publish(ctx, uc.publisher, dominv.NewStockChangedEvent(in.OrderID, l.ProductID, l.Quantity, stock))
	}

	if len(res.Skipped) > 0 {
		run.Status = "PARTIAL"
	}
	return res, nil
}

func (uc *AdjustStockUseCase) skip(run *application.Run, res *AdjustStockResult, productID string, cause error) {
	serr := &dominv.StockReadError{ProductID: productID, Err: cause}
	res.Skipped = append(res.Skipped, serr)
	uc.adjusted.Add(1, observability.L("outcome", "skipped"))

	reason := "read_failed"
	if errors.Is(cause, dominv.ErrNotFound) {
		reason = "not_found"
	}
	run.Log.Warn("stock_adjustment_skipped",
		observability.F("product_id", productID),
		observability.F("reason", reason),
		observability.F("error", cause.Error()),
	)
}
