package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	domfulfil "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/infrastructure/memory"
)

type subscriberStub struct {
	handlers map[string]domoutbox.Handler
}

func (s *subscriberStub) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]domoutbox.Handler)
	}
	s.handlers[name] = h
}

type fixture struct {
	orders *memory.OrderRepository
	groups *memory.FulfillmentRepository
	fire   domoutbox.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := memory.NewOrderRepository()
	groups := memory.NewFulfillmentRepository()
	o, err := domorder.New(domorder.Params{
		ID:            "o-1",
		BuyerID:       "b-1",
		PaymentMethod: payment.CashOnDelivery(),
		Lines: []domorder.LineInput{
			{ProductID: "yam", SupplierID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: "okra", SupplierID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		Now: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, orders.Insert(context.Background(), o))
	require.NoError(t, groups.SaveAll(context.Background(), domfulfil.GroupBySupplier(o)))

	sub := &subscriberStub{}
	New(orders, groups, apporder.NewTransitionStatusUseCase(orders, nil, nil), sub, nil).Start()
	return &fixture{orders: orders, groups: groups, fire: sub.handlers[domfulfil.SupplierStatusChangedEvent{}.EventName()]}
}

func (f *fixture) advance(t *testing.T, supplier string, to domfulfil.ShipmentStatus) {
	t.Helper()
	ctx := context.Background()
	g, err := f.groups.Get(ctx, "o-1", supplier)
	require.NoError(t, err)
	from := g.Shipment
	require.NoError(t, g.Advance(to, time.Now()))
	require.NoError(t, f.groups.UpdateShipment(ctx, g, from))
	require.NoError(t, f.fire(ctx, domfulfil.NewSupplierStatusChangedEvent(g)))
}

func (f *fixture) status(t *testing.T) domorder.Status {
	o, err := f.orders.Get(context.Background(), "o-1")
	require.NoError(t, err)
	return o.Status
}

func TestRollupWaitsForSlowestSupplier(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.fire)

	f.advance(t, "A", domfulfil.ShipmentProcessing)
	assert.Equal(t, domorder.StatusPending, f.status(t))

	f.advance(t, "B", domfulfil.ShipmentProcessing)
	assert.Equal(t, domorder.StatusProcessing, f.status(t))

	f.advance(t, "A", domfulfil.ShipmentShipped)
	f.advance(t, "A", domfulfil.ShipmentDelivered)
	assert.Equal(t, domorder.StatusProcessing, f.status(t))

	f.advance(t, "B", domfulfil.ShipmentShipped)
	assert.Equal(t, domorder.StatusShipped, f.status(t))

	f.advance(t, "B", domfulfil.ShipmentDelivered)
	assert.Equal(t, domorder.StatusDelivered, f.status(t))
}

func TestRollupIgnoresCancelledGroups(t *testing.T) {
	f := newFixture(t)
	f.advance(t, "B", domfulfil.ShipmentCancelled)
	f.advance(t, "A", domfulfil.ShipmentProcessing)
	assert.Equal(t, domorder.StatusProcessing, f.status(t))
}

func TestRollupAndPath(t *testing.T) {
	_, ok := rollup(nil)
	assert.False(t, ok)
	_, ok = rollup([]domfulfil.Group{{Shipment: domfulfil.ShipmentCancelled}})
	assert.False(t, ok)

	assert.Equal(t,
		[]domorder.Status{domorder.StatusConfirmed, domorder.StatusProcessing, domorder.StatusShipped},
		path(domorder.StatusPending, domorder.StatusShipped))
	assert.Empty(t, path(domorder.StatusShipped, domorder.StatusProcessing))
	assert.Empty(t, path(domorder.StatusCancelled, domorder.StatusDelivered))
}
