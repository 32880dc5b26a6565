package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

type fakeProcessor struct {
	outcome dompay.Outcome
	err     error
	calls   []dompay.Charge
}

func (f *fakeProcessor) Charge(_ context.Context, c dompay.Charge) (dompay.Outcome, error) {
	f.calls = append(f.calls, c)
	return f.outcome, f.err
}

type seqRefs struct{ n int }

func (s *seqRefs) NewReference() string {
	s.n++
	return "PAY-" + string(rune('A'+s.n-1))
}

func TestCashOnDeliveryBypassesProcessor(t *testing.T) {
	proc := &fakeProcessor{outcome: dompay.OutcomeSuccess}
	g := NewGateway(proc, &seqRefs{}, nil)

	res, err := g.Execute(context.Background(), AttemptInput{AmountMinor: 3099, Method: dompay.CashOnDelivery()})
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusPending, res.Status)
	assert.Empty(t, res.Reference)
	assert.Empty(t, proc.calls)
}

func TestCardSuccessCarriesServerReference(t *testing.T) {
	proc := &fakeProcessor{outcome: dompay.OutcomeSuccess}
	g := NewGateway(proc, &seqRefs{}, nil)

	res, err := g.Execute(context.Background(), AttemptInput{
		AmountMinor: 3099,
		PayerEmail:  "ama@example.com",
		Method:      dompay.MobileMoney(dompay.ProviderVodafone),
		Metadata:    map[string]string{"session": "s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, AttemptResult{Reference: "PAY-A", Status: dompay.StatusPaid}, res)
	require.Len(t, proc.calls, 1)
	assert.Equal(t, "PAY-A", proc.calls[0].Reference)
	assert.Equal(t, int64(3099), proc.calls[0].AmountMinor)
	assert.Equal(t, "s1", proc.calls[0].Metadata["session"])
}

func TestGatewayFailuresWrapErrGateway(t *testing.T) {
	tests := []struct {
		name string
		proc *fakeProcessor
		in   AttemptInput
		want error
	}{
		{"cancelled", &fakeProcessor{outcome: dompay.OutcomeCancelled}, AttemptInput{AmountMinor: 1, Method: dompay.Card()}, dompay.ErrCancelled},
		{"declined", &fakeProcessor{outcome: dompay.OutcomeDeclined}, AttemptInput{AmountMinor: 1, Method: dompay.Card()}, dompay.ErrDeclined},
		{"processor error", &fakeProcessor{err: errors.New("popup blocked")}, AttemptInput{AmountMinor: 1, Method: dompay.Card()}, dompay.ErrGateway},
		{"zero amount", &fakeProcessor{}, AttemptInput{Method: dompay.Card()}, dompay.ErrInvalidAmount},
		{"bad provider", &fakeProcessor{}, AttemptInput{AmountMinor: 1, Method: dompay.MobileMoney("orange")}, dompay.ErrInvalidProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.proc, &seqRefs{}, nil)
			res, err := g.Execute(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, dompay.ErrGateway)
			assert.Empty(t, res.Reference)
		})
	}
}

type recordingResolver struct {
	ref     string
	outcome dompay.Outcome
	err     error
}

func (r *recordingResolver) Resolve(ref string, o dompay.Outcome) error {
	r.ref, r.outcome = ref, o
	return r.err
}

func TestCallbackUseCase(t *testing.T) {
	res := &recordingResolver{}
	uc := NewCallbackUseCase(res, nil)

	_, err := uc.Execute(context.Background(), CallbackInput{Reference: "PAY-1", Outcome: dompay.OutcomeCancelled})
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", res.ref)
	assert.Equal(t, dompay.OutcomeCancelled, res.outcome)

	_, err = uc.Execute(context.Background(), CallbackInput{Reference: "PAY-1", Outcome: "maybe"})
	assert.Error(t, err)

	res.err = dompay.ErrUnknownRef
	_, err = uc.Execute(context.Background(), CallbackInput{Reference: "PAY-2", Outcome: dompay.OutcomeSuccess})
	assert.ErrorIs(t, err, dompay.ErrUnknownRef)
}
