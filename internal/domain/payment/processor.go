package payment

import "context"

// Charge is one card or mobile money collection request.
type Charge struct {
	Reference   string
	AmountMinor int64
	PayerEmail  string
	Method      Method
	Metadata    map[string]string
}

// Outcome is how the payer left the processor's interactive flow.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeDeclined  Outcome = "declined"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeCancelled, OutcomeDeclined:
		return true
	}
	return false
}

// Processor is the external payment processor. Charge blocks until the payer finishes
// or the context ends.
type Processor interface {
	Charge(ctx context.Context, c Charge) (Outcome, error)
}
