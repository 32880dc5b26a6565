package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	o := newTestOrder(t)
	for _, next := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered} {
		require.NoError(t, o.TransitionTo(next, ""))
		assert.Equal(t, next, o.Status)
	}
	assert.True(t, o.Status.Terminal())
	assert.ErrorIs(t, o.TransitionTo(StatusCancelled, "late"), ErrInvalidTransition)
}

func TestSkippingStepsIsRejected(t *testing.T) {
	o := newTestOrder(t)
	assert.ErrorIs(t, o.TransitionTo(StatusShipped, ""), ErrInvalidTransition)
	assert.ErrorIs(t, o.TransitionTo(StatusPending, ""), ErrInvalidTransition)
	assert.Equal(t, StatusPending, o.Status)
}

func TestCancelFromAnyOpenState(t *testing.T) {
	for _, path := range [][]Status{
		{},
		{StatusConfirmed},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusProcessing, StatusShipped},
	} {
		o := newTestOrder(t)
		for _, s := range path {
			require.NoError(t, o.TransitionTo(s, ""))
		}
		require.NoError(t, o.TransitionTo(StatusCancelled, "buyer request"))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "buyer request", o.CancelReason)
		assert.ErrorIs(t, o.TransitionTo(StatusConfirmed, ""), ErrInvalidTransition)
	}
}

func TestCanTransitionToDoesNotMutate(t *testing.T) {
	o := newTestOrder(t)
	assert.True(t, o.CanTransitionTo(StatusConfirmed))
	assert.True(t, o.CanTransitionTo(StatusCancelled))
	assert.False(t, o.CanTransitionTo(StatusDelivered))
	assert.Equal(t, StatusPending, o.Status)
	assert.Empty(t, o.CancelReason)
}

func TestStatusTextRoundTrip(t *testing.T) {
	b, err := json.Marshal(struct {
		S Status `json:"s"`
	}{StatusShipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"shipped"}`, string(b))

	s, err := ParseStatus(" Delivered ")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("lost")
	assert.Error(t, err)
	_, err = StatusUnknown.MarshalText()
	assert.Error(t, err)
}

func TestEveryStatusHasPresentation(t *testing.T) {
	for s := range statusNames {
		p, ok := Presentations[s]
		assert.True(t, ok, s.String())
		assert.NotEmpty(t, p.Label)
	}
	assert.Equal(t, "Unknown", StatusUnknown.Presentation().Label)
}
