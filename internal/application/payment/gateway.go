package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	dompay "github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	paymentService       = "payment-service"
	useCaseGatewayCharge = "payment.attempt"
	processorPeer        = "payment_processor"
)

// ReferenceGenerator mints server-side payment references.
type ReferenceGenerator interface {
	NewReference() string
}

type AttemptInput struct {
	AmountMinor int64
	PayerEmail  string
	Method      dompay.Method
	Metadata    map[string]string
	// OnReference, when set, receives the minted reference before the processor is charged.
	OnReference func(reference string)
}

type AttemptResult struct {
	Reference string
	Status    dompay.Status
}

// Gateway is the single entry point for card, mobile money and cash on delivery attempts.
type Gateway struct {
	processor dompay.Processor
	refs      ReferenceGenerator
	tracker   *application.Tracker
	attempts  observability.Counter // payment_gateway_attempts_total{channel,outcome}
}

var _ application.UseCase[AttemptInput, AttemptResult] = (*Gateway)(nil)

func NewGateway(processor dompay.Processor, refs ReferenceGenerator, tel observability.Observability) *Gateway {
	return &Gateway{
		processor: processor,
		refs:      refs,
		tracker:   application.NewTracker(tel, paymentService),
		attempts:  observability.OrNop(tel).Metrics().Counter(observability.MGatewayAttempts),
	}
}

// Execute runs one attempt. Cash on delivery never reaches the processor and
// resolves as pending with no reference. Every failure wraps dompay.ErrGateway.
func (g *Gateway) Execute(ctx context.Context, in AttemptInput) (_ AttemptResult, err error) {
	ctx, run := g.tracker.Begin(ctx, useCaseGatewayCharge, "PaymentAttempt",
		attribute.String("payment.channel", in.Method.Channel()),
		attribute.Int64("payment.amount_minor", in.AmountMinor),
	)
	defer func() {
		g.attempts.Add(1,
			observability.L("channel", in.Method.Channel()),
			observability.L("outcome", run.Status),
		)
		run.End(err)
	}()

	if verr := in.Method.Validate(); verr != nil {
		run.Fail("METHOD_INVALID")
		return AttemptResult{}, fmt.Errorf("%w: %w", dompay.ErrGateway, verr)
	}

	if !in.Method.UsesGateway() {
		run.Status = "BYPASSED"
		return AttemptResult{Status: dompay.StatusPending}, nil
	}

	if in.AmountMinor <= 0 {
		run.Fail("AMOUNT_INVALID")
		return AttemptResult{}, fmt.Errorf("%w: %w", dompay.ErrGateway, dompay.ErrInvalidAmount)
	}
	if g.processor == nil {
		run.Fail("PROCESSOR_MISSING")
		return AttemptResult{}, fmt.Errorf("%w: no processor configured", dompay.ErrGateway)
	}

	ref := g.refs.NewReference()
	run.Span.SetAttributes(attribute.String("payment.reference", ref))
	run.Field("reference", ref)
	if in.OnReference != nil {
		in.OnReference(ref)
	}

	start := time.Now()
	outcome, perr := g.processor.Charge(ctx, dompay.Charge{
		Reference:   ref,
		AmountMinor: in.AmountMinor,
		PayerEmail:  in.PayerEmail,
		Method:      in.Method,
		Metadata:    in.Metadata,
	})
	extOutcome := string(outcome)
	if perr != nil {
		extOutcome = "error"
	}
	g.tracker.External(processorPeer, in.Method.Channel(), extOutcome, start)

	if perr != nil {
		run.Fail("PROCESSOR_FAILED")
		if errors.Is(perr, dompay.ErrGateway) {
			return AttemptResult{}, perr
		}
		return AttemptResult{}, fmt.Errorf("%w: %w", dompay.ErrGateway, perr)
	}

	switch outcome {
	case dompay.OutcomeSuccess:
		return AttemptResult{Reference: ref, Status: dompay.StatusPaid}, nil
	case dompay.OutcomeCancelled:
		run.Fail("CANCELLED")
		return AttemptResult{}, dompay.ErrCancelled
	case dompay.OutcomeDeclined:
		run.Fail("DECLINED")
		return AttemptResult{}, dompay.ErrDeclined
	default:
		run.Fail("OUTCOME_UNKNOWN")
		return AttemptResult{}, fmt.Errorf("%w: unexpected outcome %q", dompay.ErrGateway, outcome)
	}
}
