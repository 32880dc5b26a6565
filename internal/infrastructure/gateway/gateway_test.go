package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

func TestSimulatorRates(t *testing.T) {
	ctx := context.Background()
	s := NewSimulator(1, 0, 0)
	o, err := s.Charge(ctx, dompay.Charge{})
	require.NoError(t, err)
	assert.Equal(t, dompay.OutcomeSuccess, o)

	s.SetRates(0, 1)
	o, err = s.Charge(ctx, dompay.Charge{})
	require.NoError(t, err)
	assert.Equal(t, dompay.OutcomeCancelled, o)

	s.SetRates(0, 0)
	o, err = s.Charge(ctx, dompay.Charge{})
	require.NoError(t, err)
	assert.Equal(t, dompay.OutcomeDeclined, o)
}

func TestSimulatorHonoursContext(t *testing.T) {
	s := NewSimulator(1, 0, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Charge(ctx, dompay.Charge{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInteractiveResolve(t *testing.T) {
	g := NewInteractive(0, nil)
	result := make(chan dompay.Outcome, 1)
	go func() {
		o, err := g.Charge(context.Background(), dompay.Charge{Reference: "PAY-1", Method: dompay.Card()})
		assert.NoError(t, err)
		result <- o
	}()

	require.Eventually(t, func() bool { return len(g.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, g.Resolve("PAY-1", dompay.OutcomeCancelled))
	assert.Equal(t, dompay.OutcomeCancelled, <-result)

	assert.ErrorIs(t, g.Resolve("PAY-1", dompay.OutcomeSuccess), dompay.ErrUnknownRef)
	assert.Empty(t, g.Pending())
}

func TestInteractiveTimeout(t *testing.T) {
	g := NewInteractive(20*time.Millisecond, nil)
	_, err := g.Charge(context.Background(), dompay.Charge{Reference: "PAY-2"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, g.Pending())
}

func TestInteractiveRejectsBadInput(t *testing.T) {
	g := NewInteractive(0, nil)
	_, err := g.Charge(context.Background(), dompay.Charge{})
	assert.ErrorIs(t, err, dompay.ErrGateway)
	assert.ErrorIs(t, g.Resolve("x", "maybe"), dompay.ErrGateway)
}
