package fulfillment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const workerService = "fulfillment-worker"

// Worker opens supplier groups when an order is placed and cascades order-level moves.
type Worker struct {
	service    *Service
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewWorker(service *Service, subscriber domoutbox.Subscriber) *Worker {
	return &Worker{
		service:    service,
		subscriber: subscriber,
		log:        service.tracker.Logger().With(observability.F("component", workerService)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.service == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.OrderStatusChangedEvent{}.EventName(), w.handleStatusChanged)
	w.log.Info("worker_started",
		observability.F("events", []string{domorder.OrderPlacedEvent{}.EventName(), domorder.OrderStatusChangedEvent{}.EventName()}),
	)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "fulfillment.worker.order_placed"
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	ctx, run := w.service.tracker.Begin(ctx, useCase, "OpenGroups",
		attribute.String("order.id", evt.OrderID),
		attribute.String("event", e.EventName()),
	)
	defer func() { run.End(err) }()

	o, err := w.service.orders.Get(ctx, evt.OrderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return fmt.Errorf("worker: load order: %w", err)
	}
	groups, err := w.service.Open(ctx, o)
	if err != nil {
		run.Fail("GROUPS_OPEN_FAILED")
		return err
	}
	run.Field("groups", len(groups))
	return nil
}

// handleStatusChanged cancels open groups when the order is cancelled and pulls groups that
// are behind forward when staff move the whole order ahead.
func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "fulfillment.worker.order_status_changed"
	evt, ok := e.(domorder.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	target := domain.ShipmentFromOrder(evt.To)
	if target == domain.ShipmentPending {
		return nil
	}

	span := "CatchUpGroups"
	if target == domain.ShipmentCancelled {
		span = "CancelGroups"
	}
	ctx, run := w.service.tracker.Begin(ctx, useCase, span,
		attribute.String("order.id", evt.OrderID),
		attribute.String("event", e.EventName()),
	)
	defer func() { run.End(err) }()

	if target == domain.ShipmentCancelled {
		n, err := w.service.CancelAll(ctx, run, evt.OrderID)
		if err != nil {
			run.Fail("GROUPS_CANCEL_FAILED")
			return fmt.Errorf("worker: cancel groups: %w", err)
		}
		run.Field("cancelled", n)
		return nil
	}

	n, err := w.service.CatchUp(ctx, run, evt.OrderID, target)
	if err != nil {
		run.Fail("GROUPS_ADVANCE_FAILED")
		return fmt.Errorf("worker: advance groups: %w", err)
	}
	run.Field("advanced", n)
	return nil
}
