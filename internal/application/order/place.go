package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	appinv "github.com/Barrister1990/agrilink-sub000/internal/application/inventory"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	orderService      = "order-service"
	useCaseOrderPlace = "order.place"
)

var ErrValidation = errors.New("order: invalid request")

type PlaceOrderInput struct {
	IdempotencyKey   string
	BuyerID          string
	Lines            []domain.LineInput
	Shipping         domain.Address
	PaymentMethod    dompay.Method
	PaymentReference string
	PaymentStatus    dompay.Status
	Notes            string
}

type PlaceOrderResult struct {
	OrderID   string
	Status    domain.Status
	Total     decimal.Decimal
	ItemCount int
	Replayed  bool
}

// PlaceOrderUseCase persists an order with its line items, adjusts stock and
// announces order.placed. A repeated (buyer, idempotency key) returns the
// original order untouched.
type PlaceOrderUseCase struct {
	repo        domain.Repository
	fees        FeeTable
	stock       StockAdjuster
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	tracker     *application.Tracker
}

var _ application.UseCase[PlaceOrderInput, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

func NewPlaceOrderUseCase(
	repo domain.Repository,
	fees FeeTable,
	stock StockAdjuster,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		repo:        repo,
		fees:        fees,
		stock:       stock,
		idGenerator: idGen,
		publisher:   publisher,
		tracker:     application.NewTracker(tel, orderService),
	}
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	ctx, run := uc.tracker.Begin(ctx, useCaseOrderPlace, "PlaceOrder",
		attribute.String("order.buyer_id", cmd.BuyerID),
		attribute.String("payment.channel", cmd.PaymentMethod.Channel()),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.BuyerID) == "" {
		run.Fail("BUYER_ID_REQUIRED")
		return nil, newValidation("buyer id is required")
	}
	if len(cmd.Lines) == 0 {
		run.Fail("LINES_REQUIRED")
		return nil, newValidation("at least one line item is required")
	}
	if verr := cmd.PaymentMethod.Validate(); verr != nil {
		run.Fail("PAYMENT_METHOD_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, verr)
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		existing, repoErr := uc.repo.FindByIdempotency(ctx, cmd.BuyerID, cmd.IdempotencyKey)
		switch {
		case repoErr == nil:
			return uc.replay(run, existing), nil
		case errors.Is(repoErr, domain.ErrNotFound):
		default:
			run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
			return nil, wrapRepositoryError(repoErr)
		}
	}

	entity, derr := domain.New(domain.Params{
		ID:               uc.idGenerator.NewID(),
		BuyerID:          cmd.BuyerID,
		IdempotencyKey:   cmd.IdempotencyKey,
		Shipping:         cmd.Shipping,
		ShippingFee:      uc.fees.Fee(cmd.Shipping.Region),
		PaymentMethod:    cmd.PaymentMethod,
		PaymentStatus:    cmd.PaymentStatus,
		PaymentReference: cmd.PaymentReference,
		Notes:            cmd.Notes,
		Lines:            cmd.Lines,
	})
	if derr != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrValidation, derr)
	}

	if err := uc.repo.Insert(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) && cmd.IdempotencyKey != "" {
			if existing, lookupErr := uc.repo.FindByIdempotency(ctx, cmd.BuyerID, cmd.IdempotencyKey); lookupErr == nil {
				return uc.replay(run, existing), nil
			}
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("order_id", entity.ID)

	if uc.stock != nil {
		lines := make([]appinv.Line, 0, len(entity.Items))
		for _, it := range entity.Items {
			lines = append(lines, appinv.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		adj, aerr := uc.stock.Execute(ctx, appinv.AdjustStockInput{OrderID: entity.ID, Lines: lines})
		if aerr != nil || len(adj.Skipped) > 0 {
			run.Status = "STOCK_PARTIAL"
			run.Field("stock_skipped", len(adj.Skipped))
		}
	}

	if perr := run.Publish(ctx, uc.publisher, domain.NewOrderPlacedEvent(entity)); perr != nil {
		run.Status = "EVENT_PUBLISH_FAILED"
	}

	run.Span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.status", entity.Status.String()),
	)
	run.Span.AddEvent("order.placed", trace.WithAttributes(attribute.String("order.id", entity.ID)))

	return &PlaceOrderResult{
		OrderID:   entity.ID,
		Status:    entity.Status,
		Total:     entity.Total,
		ItemCount: entity.ItemCount(),
	}, nil
}

func (uc *PlaceOrderUseCase) replay(run *application.Run, existing *domain.Order) *PlaceOrderResult {
	run.Status = "IDEMPOTENT_REPLAY"
	run.Field("order_id", existing.ID)
	run.Span.AddEvent("order.idempotent_replay",
		trace.WithAttributes(attribute.String("order.id", existing.ID)),
	)
	return &PlaceOrderResult{
		OrderID:   existing.ID,
		Status:    existing.Status,
		Total:     existing.Total,
		ItemCount: existing.ItemCount(),
		Replayed:  true,
	}
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
