package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/Barrister1990/agrilink-sub000/internal/application/inventory"
	dominv "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/shipping"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/memory"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("ord-%d", s.n)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (c *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	orders *memory.OrderRepository
	stock  *memory.InventoryRepository
	pub    *capturePublisher
	place  *PlaceOrderUseCase
}

func newFixture() *fixture {
	orders := memory.NewOrderRepository()
	stock := memory.NewInventoryRepository(
		&dominv.Product{ID: "p1", SupplierID: "A", Stock: 3},
		&dominv.Product{ID: "p2", SupplierID: "B", Stock: 10},
	)
	pub := &capturePublisher{}
	adjust := appinv.NewAdjustStockUseCase(stock, pub, nil)
	return &fixture{
		orders: orders,
		stock:  stock,
		pub:    pub,
		place:  NewPlaceOrderUseCase(orders, shipping.DefaultTable(), adjust, &seqIDs{}, pub, nil),
	}
}

func scenarioInput(key string) PlaceOrderInput {
	return PlaceOrderInput{
		IdempotencyKey: key,
		BuyerID:        "buyer-1",
		Lines: []domain.LineInput{
			{ProductID: "p1", SupplierID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: "p2", SupplierID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		Shipping:      domain.Address{Name: "Kofi, Jr.", Region: "greater-accra", City: "Accra"},
		PaymentMethod: dompay.CashOnDelivery(),
		PaymentStatus: dompay.StatusPending,
	}
}

func TestPlaceOrderScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.place.Execute(ctx, scenarioInput("k1"))
	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, "30.99", res.Total.StringFixed(2))
	assert.Equal(t, 3, res.ItemCount)
	assert.False(t, res.Replayed)

	stored, err := f.orders.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, "25.00", stored.Subtotal.StringFixed(2))
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, dompay.StatusPending, stored.PaymentStatus)
	assert.NoError(t, stored.Validate())

	p1, _ := f.stock.Get(ctx, "p1")
	p2, _ := f.stock.Get(ctx, "p2")
	assert.Equal(t, 1, p1.Stock)
	assert.Equal(t, 9, p2.Stock)

	assert.Contains(t, f.pub.names(), "order.placed")
	assert.Contains(t, f.pub.names(), "inventory.stock_changed")
}

func TestPlaceOrderReplaysIdempotencyKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.place.Execute(ctx, scenarioInput("k1"))
	require.NoError(t, err)
	second, err := f.place.Execute(ctx, scenarioInput("k1"))
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Replayed)

	all, err := f.orders.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	p1, _ := f.stock.Get(ctx, "p1")
	assert.Equal(t, 1, p1.Stock, "replay must not decrement again")
}

func TestPlaceOrderClampsStockAndSkipsUnknownProducts(t *testing.T) {
	f := newFixture()
	in := scenarioInput("")
	in.Lines = append(in.Lines,
		domain.LineInput{ProductID: "p1", SupplierID: "A", Quantity: 5, UnitPrice: decimal.NewFromInt(10)},
		domain.LineInput{ProductID: "ghost", SupplierID: "C", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
	)

	res, err := f.place.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)

	p1, _ := f.stock.Get(context.Background(), "p1")
	assert.Equal(t, 0, p1.Stock)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture()
	in := scenarioInput("")
	in.BuyerID = ""
	_, err := f.place.Execute(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)

	in = scenarioInput("")
	in.Lines = nil
	_, err = f.place.Execute(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)

	in = scenarioInput("")
	in.Lines[0].Quantity = 0
	_, err = f.place.Execute(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

type failingRepo struct {
	*memory.OrderRepository
	err error
}

func (r failingRepo) Insert(context.Context, *domain.Order) error { return r.err }

func TestPlaceOrderPersistenceFailure(t *testing.T) {
	f := newFixture()
	repo := failingRepo{OrderRepository: f.orders, err: errors.New("disk full")}
	uc := NewPlaceOrderUseCase(repo, shipping.DefaultTable(), nil, &seqIDs{}, f.pub, nil)

	_, err := uc.Execute(context.Background(), scenarioInput("k1"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, f.pub.names())

	p1, _ := f.stock.Get(context.Background(), "p1")
	assert.Equal(t, 3, p1.Stock)
}

func TestTransitionStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, err := f.place.Execute(ctx, scenarioInput("k1"))
	require.NoError(t, err)

	uc := NewTransitionStatusUseCase(f.orders, f.pub, nil)
	o, err := uc.Execute(ctx, TransitionStatusInput{OrderID: res.OrderID, Status: domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Contains(t, f.pub.names(), "order.status_changed")

	_, err = uc.Execute(ctx, TransitionStatusInput{OrderID: res.OrderID, Status: domain.StatusDelivered})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.Execute(ctx, TransitionStatusInput{OrderID: "missing", Status: domain.StatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	o, err = uc.Execute(ctx, TransitionStatusInput{OrderID: res.OrderID, Status: domain.StatusCancelled, Reason: "out of season"})
	require.NoError(t, err)
	stored, _ := NewReader(f.orders).Get(ctx, res.OrderID)
	assert.Equal(t, "out of season", stored.CancelReason)
}

func TestExportCSV(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.place.Execute(ctx, scenarioInput("k1"))
	require.NoError(t, err)

	orders, err := NewReader(f.orders).List(ctx, domain.Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, orders))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Order ID,Customer,Date,Items,Status,Amount", lines[0])
	want := fmt.Sprintf(`ord-1,"Kofi, Jr.",%s,3,Pending,30.99`, time.Now().UTC().Format("2006-01-02"))
	assert.Equal(t, want, lines[1])
}
