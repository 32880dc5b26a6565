package order

import "fmt"

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	Confirm(o *Order) (OrderState, error)
	StartProcessing(o *Order) (OrderState, error)
	Ship(o *Order) (OrderState, error)
	Deliver(o *Order) (OrderState, error)
	Cancel(o *Order, reason string) (OrderState, error)
}

// refuse rejects every transition; concrete states embed it and override what they allow.
type refuse struct{}

func (refuse) Confirm(*Order) (OrderState, error)         { return nil, ErrInvalidTransition }
func (refuse) StartProcessing(*Order) (OrderState, error) { return nil, ErrInvalidTransition }
func (refuse) Ship(*Order) (OrderState, error)            { return nil, ErrInvalidTransition }
func (refuse) Deliver(*Order) (OrderState, error)         { return nil, ErrInvalidTransition }
func (refuse) Cancel(*Order, string) (OrderState, error)  { return nil, ErrInvalidTransition }

// cancellable is embedded by every non-terminal state.
type cancellable struct{ refuse }

func (cancellable) Cancel(o *Order, reason string) (OrderState, error) {
	o.CancelReason = reason
	return cancelledState{}, nil
}

type pendingState struct{ cancellable }

func (pendingState) Status() Status { return StatusPending }

func (pendingState) Confirm(*Order) (OrderState, error) { return confirmedState{}, nil }

type confirmedState struct{ cancellable }

func (confirmedState) Status() Status { return StatusConfirmed }

func (confirmedState) StartProcessing(*Order) (OrderState, error) { return processingState{}, nil }

type processingState struct{ cancellable }

func (processingState) Status() Status { return StatusProcessing }

func (processingState) Ship(*Order) (OrderState, error) { return shippedState{}, nil }

type shippedState struct{ cancellable }

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) Deliver(*Order) (OrderState, error) { return deliveredState{}, nil }

type deliveredState struct{ refuse }

func (deliveredState) Status() Status { return StatusDelivered }

type cancelledState struct{ refuse }

func (cancelledState) Status() Status { return StatusCancelled }

func stateFor(s Status) (OrderState, error) {
	switch s {
	case StatusPending:
		return pendingState{}, nil
	case StatusConfirmed:
		return confirmedState{}, nil
	case StatusProcessing:
		return processingState{}, nil
	case StatusShipped:
		return shippedState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusCancelled:
		return cancelledState{}, nil
	}
	return nil, fmt.Errorf("%w: unknown status %d", ErrInvalidTransition, s)
}

// TransitionTo moves the order to target, returning ErrInvalidTransition when the
// lifecycle does not allow it. reason is recorded only for cancellations.
func (o *Order) TransitionTo(target Status, reason string) error {
	current, err := stateFor(o.Status)
	if err != nil {
		return err
	}

	var next OrderState
	switch target {
	case StatusConfirmed:
		next, err = current.Confirm(o)
	case StatusProcessing:
		next, err = current.StartProcessing(o)
	case StatusShipped:
		next, err = current.Ship(o)
	case StatusDelivered:
		next, err = current.Deliver(o)
	case StatusCancelled:
		next, err = current.Cancel(o, reason)
	default:
		err = ErrInvalidTransition
	}
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, o.Status, target)
	}

	o.Status = next.Status()
	o.touch()
	return nil
}

// CanTransitionTo reports whether TransitionTo(target) would succeed, without mutating o.
func (o *Order) CanTransitionTo(target Status) bool {
	trial := o.Clone()
	return trial.TransitionTo(target, "") == nil
}
