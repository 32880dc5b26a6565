package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New(Params{
		ID:             "ord-1",
		BuyerID:        "buyer-1",
		IdempotencyKey: "key-1",
		ShippingFee:    decimal.RequireFromString("5.99"),
		PaymentMethod:  payment.Card(),
		Lines: []LineInput{
			{ProductID: "p1", SupplierID: "f1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
			{ProductID: "p2", SupplierID: "f2", Quantity: 1, UnitPrice: decimal.RequireFromString("4.00")},
			{ProductID: "p3", SupplierID: "f1", Quantity: 3, UnitPrice: decimal.RequireFromString("1.25")},
		},
		Now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return o
}

func TestNewDerivesTotals(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, payment.StatusPending, o.PaymentStatus)
	assert.True(t, decimal.RequireFromString("21").Equal(o.Items[0].LineTotal))
	assert.True(t, decimal.RequireFromString("28.75").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("34.74").Equal(o.Total))
	assert.Equal(t, 6, o.ItemCount())
	assert.Equal(t, []string{"f1", "f2"}, o.SupplierIDs())
	assert.NoError(t, o.Validate())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Params{ID: "x"})
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = New(Params{ID: "x", Lines: []LineInput{{ProductID: "p", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = New(Params{ID: "x", Lines: []LineInput{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = New(Params{ID: "x", ShippingFee: decimal.NewFromInt(-1), Lines: []LineInput{{ProductID: "p", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidateDetectsTampering(t *testing.T) {
	o := newTestOrder(t)
	o.Total = o.Total.Add(decimal.NewFromInt(1))
	assert.ErrorIs(t, o.Validate(), ErrTotalsMismatch)

	o = newTestOrder(t)
	o.Items[1].Quantity = 5
	assert.ErrorIs(t, o.Validate(), ErrTotalsMismatch)
}

func TestCloneIsIndependent(t *testing.T) {
	o := newTestOrder(t)
	c := o.Clone()
	c.Items[0].Quantity = 99
	c.Status = StatusCancelled
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, StatusPending, o.Status)
}

func TestMarkPaid(t *testing.T) {
	o := newTestOrder(t)
	assert.True(t, o.MarkPaid(time.Now()))
	assert.False(t, o.MarkPaid(time.Now()))
	assert.Equal(t, payment.StatusPaid, o.PaymentStatus)
}

func TestFilterMatches(t *testing.T) {
	o := newTestOrder(t)

	assert.True(t, Filter{}.Matches(o))
	assert.True(t, Filter{SupplierID: "f2"}.Matches(o))
	assert.False(t, Filter{SupplierID: "f9"}.Matches(o))
	assert.False(t, Filter{BuyerID: "other"}.Matches(o))
	assert.True(t, Filter{Statuses: []Status{StatusConfirmed, StatusPending}}.Matches(o))
	assert.False(t, Filter{Statuses: []Status{StatusDelivered}}.Matches(o))
	assert.True(t, Filter{CreatedFrom: o.CreatedAt, CreatedTo: o.CreatedAt.Add(time.Second)}.Matches(o))
	assert.False(t, Filter{CreatedTo: o.CreatedAt}.Matches(o))
}
