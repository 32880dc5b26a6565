package checkout

import (
	"errors"
	"fmt"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/payment"
)

var (
	ErrWrongStep        = errors.New("checkout: action not allowed at current step")
	ErrNoPreviousStep   = errors.New("checkout: no previous step")
	ErrFinished         = errors.New("checkout: already confirmed")
	ErrShippingRequired = errors.New("checkout: shipping details required")
	ErrNoPaymentMethod  = errors.New("checkout: payment method not selected")
	ErrPaymentCaptured  = errors.New("checkout: payment already captured")
	ErrMissingOrderID   = errors.New("checkout: order id required")
)

// PaymentResult is a successful gateway attempt cached for retries.
type PaymentResult struct {
	Reference string
	Status    payment.Status
}

// Flow is the Shipping → Delivery → Payment → Confirmation state machine for one session.
// It is not safe for concurrent use; callers serialise access per session.
type Flow struct {
	step           Step
	shipping       ShippingInfo
	shippingValid  bool
	method         payment.Method
	idempotencyKey string
	captured       *PaymentResult
	orderID        string
	newKey         func() string
}

// NewFlow starts at the shipping step. newKey mints the idempotency token once the
// flow first reaches payment.
func NewFlow(newKey func() string) *Flow {
	return &Flow{step: StepShipping, newKey: newKey}
}

func (f *Flow) Step() Step                    { return f.step }
func (f *Flow) Shipping() ShippingInfo        { return f.shipping }
func (f *Flow) PaymentMethod() payment.Method { return f.method }
func (f *Flow) IdempotencyKey() string        { return f.idempotencyKey }
func (f *Flow) OrderID() string               { return f.orderID }

// CapturedPayment returns the cached gateway success, if any.
func (f *Flow) CapturedPayment() (PaymentResult, bool) {
	if f.captured == nil {
		return PaymentResult{}, false
	}
	return *f.captured, true
}

// SubmitShipping validates and stores the form. A failure keeps the step and
// invalidates any previously accepted details.
func (f *Flow) SubmitShipping(info ShippingInfo) error {
	if f.step != StepShipping {
		return fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if err := info.Validate(); err != nil {
		f.shippingValid = false
		return err
	}
	f.shipping = info.Normalized()
	f.shippingValid = true
	return nil
}

// Next advances Shipping → Delivery → Payment. Leaving Payment requires Complete.
func (f *Flow) Next() error {
	switch f.step {
	case StepShipping:
		if !f.shippingValid {
			return ErrShippingRequired
		}
		f.step = StepDelivery
	case StepDelivery:
		f.step = StepPayment
		if f.idempotencyKey == "" && f.newKey != nil {
			f.idempotencyKey = f.newKey()
		}
	case StepPayment:
		return fmt.Errorf("%w: submit to leave payment", ErrWrongStep)
	default:
		return ErrFinished
	}
	return nil
}

func (f *Flow) Back() error {
	switch {
	case f.step == StepConfirmation:
		return ErrFinished
	case f.step == StepShipping:
		return ErrNoPreviousStep
	case f.captured != nil:
		return ErrPaymentCaptured
	}
	f.step--
	return nil
}

func (f *Flow) SelectPayment(m payment.Method) error {
	if f.step != StepPayment {
		return fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if f.captured != nil && !f.method.Equal(m) {
		return ErrPaymentCaptured
	}
	f.method = m
	return nil
}

// BeginSubmit checks the flow can be submitted and returns the idempotency key to use.
func (f *Flow) BeginSubmit() (string, error) {
	if f.step == StepConfirmation {
		return "", ErrFinished
	}
	if f.step != StepPayment {
		return "", fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if f.method.IsZero() {
		return "", ErrNoPaymentMethod
	}
	if f.idempotencyKey == "" && f.newKey != nil {
		f.idempotencyKey = f.newKey()
	}
	return f.idempotencyKey, nil
}

// RecordPayment caches a paid gateway result so a retry does not charge again.
func (f *Flow) RecordPayment(r PaymentResult) {
	if r.Status != payment.StatusPaid {
		return
	}
	f.captured = &r
}

// Complete lands on Confirmation once the order is persisted.
func (f *Flow) Complete(orderID string) error {
	if f.step != StepPayment {
		return fmt.Errorf("%w: %s", ErrWrongStep, f.step)
	}
	if orderID == "" {
		return ErrMissingOrderID
	}
	f.orderID = orderID
	f.step = StepConfirmation
	return nil
}
