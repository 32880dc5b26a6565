package growth

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/growth"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	growthService         = "growth-service"
	useCaseSupplierGrowth = "growth.supplier"
)

var ErrSupplierRequired = errors.New("growth: supplier id is required")

type SupplierGrowthInput struct {
	SupplierID string
	Period     domain.Period
	Now        time.Time
}

type SupplierGrowthResult struct {
	SupplierID     string          `json:"supplier_id"`
	Period         domain.Period   `json:"period"`
	CurrentWindow  domain.Window   `json:"current_window"`
	PreviousWindow domain.Window   `json:"previous_window"`
	Current        domain.Metrics  `json:"current"`
	Previous       domain.Metrics  `json:"previous"`
	Growth         domain.Rates    `json:"growth"`
	Buckets        []domain.Bucket `json:"buckets"`
}

// SupplierGrowthUseCase compares a supplier's delivered sales across two equal windows.
type SupplierGrowthUseCase struct {
	orders  domorder.Repository
	tracker *application.Tracker
}

var _ application.UseCase[SupplierGrowthInput, *SupplierGrowthResult] = (*SupplierGrowthUseCase)(nil)

func NewSupplierGrowthUseCase(orders domorder.Repository, tel observability.Observability) *SupplierGrowthUseCase {
	return &SupplierGrowthUseCase{orders: orders, tracker: application.NewTracker(tel, growthService)}
}

func (uc *SupplierGrowthUseCase) Execute(ctx context.Context, in SupplierGrowthInput) (_ *SupplierGrowthResult, err error) {
	ctx, run := uc.tracker.Begin(ctx, useCaseSupplierGrowth, "SupplierGrowth",
		attribute.String("supplier.id", in.SupplierID),
		attribute.String("growth.period", string(in.Period)),
	)
	defer func() { run.End(err) }()

	if in.SupplierID == "" {
		run.Fail("SUPPLIER_ID_REQUIRED")
		return nil, ErrSupplierRequired
	}
	period := in.Period
	if period == "" {
		period = domain.PeriodMonth
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	cur, prev := domain.Windows(period, now)
	orders, err := uc.orders.List(ctx, domorder.Filter{
		SupplierID:  in.SupplierID,
		Statuses:    []domorder.Status{domorder.StatusDelivered},
		CreatedFrom: prev.Start,
		CreatedTo:   cur.End,
	})
	if err != nil {
		run.Fail("ORDERS_LOAD_FAILED")
		return nil, err
	}

	sales := SupplierSales(orders, in.SupplierID)
	current := domain.Summarize(sales, cur)
	previous := domain.Summarize(sales, prev)
	run.Field("orders_considered", len(orders))

	return &SupplierGrowthResult{
		SupplierID:     in.SupplierID,
		Period:         period,
		CurrentWindow:  cur,
		PreviousWindow: prev,
		Current:        current,
		Previous:       previous,
		Growth:         domain.Compare(current, previous),
		Buckets:        domain.Buckets(period, sales, cur),
	}, nil
}

// SupplierSales flattens the supplier's line items into dated sales.
func SupplierSales(orders []*domorder.Order, supplierID string) []domain.Sale {
	var sales []domain.Sale
	for _, o := range orders {
		for _, it := range o.Items {
			if it.SupplierID != supplierID {
				continue
			}
			sales = append(sales, domain.Sale{OrderID: o.ID, At: o.CreatedAt, Amount: it.LineTotal})
		}
	}
	return sales
}
