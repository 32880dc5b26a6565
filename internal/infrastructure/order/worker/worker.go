package worker

import (
	"context"
	"fmt"

	apporder "github.com/Barrister1990/agrilink-sub000/internal/application/order"
	domfulfil "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
	"github.com/Barrister1990/agrilink-sub000/internal/observability/logctx"
)

const rollupReason = "supplier fulfillment progressed"

// forward is the order lifecycle without cancellation.
var forward = []domorder.Status{
	domorder.StatusPending,
	domorder.StatusConfirmed,
	domorder.StatusProcessing,
	domorder.StatusShipped,
	domorder.StatusDelivered,
}

type Transitioner interface {
	Execute(ctx context.Context, cmd apporder.TransitionStatusInput) (*domorder.Order, error)
}

// Worker rolls supplier shipment progress up into the order status: the order
// advances to the least advanced state shared by all of its live supplier groups.
type Worker struct {
	orders     domorder.Repository
	groups     domfulfil.Repository
	transition Transitioner
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func New(orders domorder.Repository, groups domfulfil.Repository, transition Transitioner, subscriber domoutbox.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		orders:     orders,
		groups:     groups,
		transition: transition,
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "order_worker")),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.orders == nil {
		return
	}
	w.subscriber.Subscribe(domfulfil.SupplierStatusChangedEvent{}.EventName(), w.handleSupplierStatusChanged)
}

func (w *Worker) handleSupplierStatusChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domfulfil.SupplierStatusChangedEvent)
	if !ok {
		return nil
	}
	logger := logctx.FromOr(ctx, w.log).With(observability.F("order_id", evt.OrderID))

	groups, err := w.groups.ListByOrder(ctx, evt.OrderID)
	if err != nil {
		logger.Error("supplier_groups_load_failed", observability.F("error", err.Error()))
		return fmt.Errorf("order worker: list groups: %w", err)
	}
	target, ok := rollup(groups)
	if !ok {
		return nil
	}

	o, err := w.orders.Get(ctx, evt.OrderID)
	if err != nil {
		logger.Error("order_load_failed", observability.F("error", err.Error()))
		return fmt.Errorf("order worker: find order: %w", err)
	}
	if o.Status == domorder.StatusCancelled {
		return nil
	}

	steps := 0
	for _, next := range path(o.Status, target) {
		if _, err := w.transition.Execute(ctx, apporder.TransitionStatusInput{
			OrderID: o.ID,
			Status:  next,
			Reason:  rollupReason,
		}); err != nil {
			logger.Warn("order_rollup_failed",
				observability.F("to", next.String()),
				observability.F("error", err.Error()),
			)
			return fmt.Errorf("order worker: advance to %s: %w", next, err)
		}
		steps++
	}
	if steps > 0 {
		logger.Info("order_rolled_up",
			observability.F("from", o.Status.String()),
			observability.F("to", target.String()),
			observability.F("supplier_id", evt.SupplierID),
		)
	}
	return nil
}

// rollup maps the slowest live group onto an order status. Groups still pending
// and orders whose groups are all cancelled produce no target.
func rollup(groups []domfulfil.Group) (domorder.Status, bool) {
	slowest := domfulfil.ShipmentDelivered
	live := 0
	for _, g := range groups {
		if g.Shipment == domfulfil.ShipmentCancelled {
			continue
		}
		live++
		if g.Shipment < slowest {
			slowest = g.Shipment
		}
	}
	if live == 0 {
		return domorder.StatusUnknown, false
	}
	switch slowest {
	case domfulfil.ShipmentProcessing:
		return domorder.StatusProcessing, true
	case domfulfil.ShipmentShipped:
		return domorder.StatusShipped, true
	case domfulfil.ShipmentDelivered:
		return domorder.StatusDelivered, true
	}
	return domorder.StatusUnknown, false
}

// path lists the statuses strictly after from up to and including to.
func path(from, to domorder.Status) []domorder.Status {
	start, end := -1, -1
	for i, s := range forward {
		if s == from {
			start = i
		}
		if s == to {
			end = i
		}
	}
	if start < 0 || end <= start {
		return nil
	}
	return forward[start+1 : end+1]
}
