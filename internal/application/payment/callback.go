package payment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const useCaseCallback = "payment.callback"

var ErrInvalidCallback = errors.New("payment: invalid callback")

// Resolver completes a charge that is waiting on the payer.
type Resolver interface {
	Resolve(reference string, outcome dompay.Outcome) error
}

type CallbackInput struct {
	Reference string
	Outcome   dompay.Outcome
}

// CallbackUseCase feeds processor callbacks into the waiting attempt.
type CallbackUseCase struct {
	resolver Resolver
	tracker  *application.Tracker
}

var _ application.UseCase[CallbackInput, struct{}] = (*CallbackUseCase)(nil)

func NewCallbackUseCase(resolver Resolver, tel observability.Observability) *CallbackUseCase {
	return &CallbackUseCase{resolver: resolver, tracker: application.NewTracker(tel, paymentService)}
}

func (uc *CallbackUseCase) Execute(ctx context.Context, in CallbackInput) (_ struct{}, err error) {
	_, run := uc.tracker.Begin(ctx, useCaseCallback, "PaymentCallback",
		attribute.String("payment.reference", in.Reference),
		attribute.String("payment.outcome", string(in.Outcome)),
	)
	defer func() { run.End(err) }()

	if in.Reference == "" || !in.Outcome.Valid() {
		run.Fail("CALLBACK_INVALID")
		return struct{}{}, fmt.Errorf("%w: %q/%q", ErrInvalidCallback, in.Reference, in.Outcome)
	}
	if uc.resolver == nil {
		run.Fail("RESOLVER_MISSING")
		return struct{}{}, dompay.ErrUnknownRef
	}
	if err := uc.resolver.Resolve(in.Reference, in.Outcome); err != nil {
		run.Fail("RESOLVE_FAILED")
		return struct{}{}, err
	}
	return struct{}{}, nil
}
