package fulfillment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

func scenarioOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New(order.Params{
		ID:            "ord-1",
		BuyerID:       "buyer-1",
		ShippingFee:   decimal.RequireFromString("5.99"),
		PaymentMethod: payment.Card(),
		Lines: []order.LineInput{
			{ProductID: "p1", SupplierID: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: "p2", SupplierID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
	})
	require.NoError(t, err)
	return o
}

func TestGroupBySupplierScenario(t *testing.T) {
	o := scenarioOrder(t)
	groups := GroupBySupplier(o)

	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].SupplierID)
	assert.Equal(t, "20.00", groups[0].Subtotal.StringFixed(2))
	assert.Equal(t, "B", groups[1].SupplierID)
	assert.Equal(t, "5.00", groups[1].Subtotal.StringFixed(2))
	assert.True(t, groups[0].Subtotal.Add(groups[1].Subtotal).Equal(o.Subtotal))
	for _, g := range groups {
		assert.Equal(t, ShipmentPending, g.Shipment)
		assert.Equal(t, payment.StatusPending, g.Payment)
	}
}

func TestGroupBySupplierMergesRepeatedSupplier(t *testing.T) {
	o, err := order.New(order.Params{
		ID: "ord-2",
		Lines: []order.LineInput{
			{ProductID: "p1", SupplierID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: "p2", SupplierID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(2)},
			{ProductID: "p3", SupplierID: "B", Quantity: 2, UnitPrice: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)
	require.NoError(t, o.TransitionTo(order.StatusConfirmed, ""))
	require.NoError(t, o.TransitionTo(order.StatusProcessing, ""))

	groups := GroupBySupplier(o)
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].SupplierID)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "7", groups[0].Subtotal.String())
	assert.Equal(t, ShipmentProcessing, groups[1].Shipment)
}

func TestShipmentTransitions(t *testing.T) {
	now := time.Now()
	g := Group{Shipment: ShipmentPending}

	assert.ErrorIs(t, g.Advance(ShipmentShipped, now), ErrInvalidTransition)
	require.NoError(t, g.Advance(ShipmentProcessing, now))
	require.NoError(t, g.Advance(ShipmentShipped, now))
	require.NoError(t, g.Advance(ShipmentDelivered, now))
	assert.ErrorIs(t, g.Advance(ShipmentCancelled, now), ErrInvalidTransition)

	g = Group{Shipment: ShipmentShipped}
	require.NoError(t, g.Advance(ShipmentCancelled, now))
	assert.True(t, g.Shipment.Terminal())
}

func TestPayoutMarksAllPaid(t *testing.T) {
	groups := GroupBySupplier(scenarioOrder(t))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	changed, err := groups[0].MarkPaid(now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, AllPaid(groups))

	_, err = groups[1].MarkPaid(now)
	require.NoError(t, err)
	assert.True(t, AllPaid(groups))
	assert.Equal(t, now, groups[1].PaidAt)

	changed, err = groups[1].MarkPaid(now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, AllPaid(nil))
}

func TestAllPaidSkipsCancelledGroups(t *testing.T) {
	paid := Group{Shipment: ShipmentShipped, Payment: payment.StatusPaid}
	open := Group{Shipment: ShipmentPending, Payment: payment.StatusPending}
	cancelled := Group{Shipment: ShipmentCancelled, Payment: payment.StatusPending}

	tests := []struct {
		name   string
		groups []Group
		want   bool
	}{
		{"paid and cancelled", []Group{paid, cancelled}, true},
		{"unpaid live group", []Group{paid, open, cancelled}, false},
		{"only cancelled", []Group{cancelled, cancelled}, false},
		{"none", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllPaid(tt.groups))
		})
	}
}

func TestShipmentNext(t *testing.T) {
	next, ok := ShipmentPending.Next()
	require.True(t, ok)
	assert.Equal(t, ShipmentProcessing, next)

	next, ok = ShipmentShipped.Next()
	require.True(t, ok)
	assert.Equal(t, ShipmentDelivered, next)

	_, ok = ShipmentDelivered.Next()
	assert.False(t, ok)
	_, ok = ShipmentCancelled.Next()
	assert.False(t, ok)
}

func TestCancelledGroupCannotBePaid(t *testing.T) {
	g := Group{Shipment: ShipmentCancelled, Payment: payment.StatusPending}
	_, err := g.MarkPaid(time.Now())
	assert.ErrorIs(t, err, ErrGroupCancelled)
}

func TestParseShipmentStatus(t *testing.T) {
	s, err := ParseShipmentStatus("Shipped")
	require.NoError(t, err)
	assert.Equal(t, ShipmentShipped, s)
	_, err = ParseShipmentStatus("lost")
	assert.Error(t, err)
}
