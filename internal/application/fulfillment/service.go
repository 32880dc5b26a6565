package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/fulfillment"
	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const (
	fulfillmentService = "fulfillment-service"
	useCaseListGroups  = "fulfillment.list_groups"
	useCaseBySupplier  = "fulfillment.list_by_supplier"
	useCasePaySupplier = "fulfillment.pay_supplier"
	useCaseAdvance     = "fulfillment.advance_shipment"

	maxWriteAttempts = 3
)

// Service tracks shipment and payout per (order, supplier).
type Service struct {
	groups    domain.Repository
	orders    domorder.Repository
	publisher domoutbox.Publisher
	tracker   *application.Tracker
	now       func() time.Time
}

func NewService(groups domain.Repository, orders domorder.Repository, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	return &Service{
		groups:    groups,
		orders:    orders,
		publisher: publisher,
		tracker:   application.NewTracker(tel, fulfillmentService),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Open persists the supplier groups of an order. Existing groups are kept as they are.
func (s *Service) Open(ctx context.Context, o *domorder.Order) ([]domain.Group, error) {
	if err := s.groups.SaveAll(ctx, domain.GroupBySupplier(o)); err != nil {
		return nil, fmt.Errorf("fulfillment: save groups: %w", err)
	}
	return s.groups.ListByOrder(ctx, o.ID)
}

// ListGroups returns the persisted groups, opening them from the order when none exist yet.
func (s *Service) ListGroups(ctx context.Context, orderID string) (_ []domain.Group, err error) {
	ctx, run := s.tracker.Begin(ctx, useCaseListGroups, "ListGroups", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	groups, err := s.loadOrOpen(ctx, run, orderID)
	if err != nil {
		return nil, err
	}
	run.Field("groups", len(groups))
	return groups, nil
}

// ListBySupplier returns one supplier's groups across every order, oldest first.
func (s *Service) ListBySupplier(ctx context.Context, supplierID string) (_ []domain.Group, err error) {
	ctx, run := s.tracker.Begin(ctx, useCaseBySupplier, "ListBySupplier", attribute.String("supplier.id", supplierID))
	defer func() { run.End(err) }()

	if supplierID == "" {
		run.Fail("SUPPLIER_REQUIRED")
		return nil, domain.ErrNotFound
	}
	groups, err := s.groups.ListBySupplier(ctx, supplierID)
	if err != nil {
		run.Fail("GROUPS_LOAD_FAILED")
		return nil, err
	}
	run.Field("groups", len(groups))
	return groups, nil
}

func (s *Service) loadOrOpen(ctx context.Context, run *application.Run, orderID string) ([]domain.Group, error) {
	groups, err := s.groups.ListByOrder(ctx, orderID)
	if err != nil {
		run.Fail("GROUPS_LOAD_FAILED")
		return nil, err
	}
	if len(groups) > 0 {
		return groups, nil
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return nil, err
	}
	run.Status = "OPENED_FROM_ORDER"
	groups, err = s.Open(ctx, o)
	if err != nil {
		run.Fail("GROUPS_OPEN_FAILED")
		return nil, err
	}
	return groups, nil
}

type PayoutResult struct {
	Group     domain.Group
	OrderPaid bool
}

// PaySupplier records the payout to one supplier. Once every live supplier of the order
// is paid the order-level payment status becomes paid.
func (s *Service) PaySupplier(ctx context.Context, orderID, supplierID string) (_ *PayoutResult, err error) {
	ctx, run := s.tracker.Begin(ctx, useCasePaySupplier, "PaySupplier",
		attribute.String("order.id", orderID),
		attribute.String("supplier.id", supplierID),
	)
	defer func() { run.End(err) }()

	if _, err := s.loadOrOpen(ctx, run, orderID); err != nil {
		return nil, err
	}

	changed, err := s.groups.MarkPaid(ctx, orderID, supplierID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGroupCancelled):
			run.Fail("GROUP_NOT_PAYABLE")
		case errors.Is(err, domain.ErrNotFound):
			run.Fail("GROUP_LOAD_FAILED")
		default:
			run.Fail("GROUP_UPDATE_FAILED")
		}
		return nil, err
	}
	g, err := s.groups.Get(ctx, orderID, supplierID)
	if err != nil {
		run.Fail("GROUP_LOAD_FAILED")
		return nil, err
	}
	if changed {
		_ = run.Publish(ctx, s.publisher, domain.NewSupplierStatusChangedEvent(g))
	} else {
		run.Status = "ALREADY_PAID"
	}

	paid, err := s.settle(ctx, run, orderID)
	if err != nil {
		return nil, err
	}
	return &PayoutResult{Group: *g, OrderPaid: paid}, nil
}

// settle marks the order paid once every live group is paid and reports whether that holds.
func (s *Service) settle(ctx context.Context, run *application.Run, orderID string) (bool, error) {
	all, err := s.groups.ListByOrder(ctx, orderID)
	if err != nil {
		run.Fail("GROUPS_LOAD_FAILED")
		return false, err
	}
	if !domain.AllPaid(all) {
		return false, nil
	}

	changed, err := s.orders.MarkPaid(ctx, orderID, s.now())
	if err != nil {
		run.Fail("ORDER_UPDATE_FAILED")
		return false, fmt.Errorf("%w: %w", domorder.ErrPersistence, err)
	}
	run.Field("order_paid", true)
	if !changed {
		return true, nil
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return true, err
	}
	_ = run.Publish(ctx, s.publisher, domorder.NewOrderPaymentStatusChangedEvent(o))
	return true, nil
}

// AdvanceShipment moves one supplier's shipment independently of the others. Cancelling
// the last unpaid group can settle the order.
func (s *Service) AdvanceShipment(ctx context.Context, orderID, supplierID string, to domain.ShipmentStatus) (_ *domain.Group, err error) {
	ctx, run := s.tracker.Begin(ctx, useCaseAdvance, "AdvanceShipment",
		attribute.String("order.id", orderID),
		attribute.String("supplier.id", supplierID),
		attribute.String("shipment.target", to.String()),
	)
	defer func() { run.End(err) }()

	if _, err := s.loadOrOpen(ctx, run, orderID); err != nil {
		return nil, err
	}
	g, err := s.moveGroup(ctx, orderID, supplierID, func(g *domain.Group) error {
		return g.Advance(to, s.now())
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			run.Fail("STATE_TRANSITION_FAILED")
		case errors.Is(err, domain.ErrNotFound):
			run.Fail("GROUP_LOAD_FAILED")
		default:
			run.Fail("GROUP_UPDATE_FAILED")
		}
		return nil, err
	}
	_ = run.Publish(ctx, s.publisher, domain.NewSupplierStatusChangedEvent(g))

	if to == domain.ShipmentCancelled {
		if _, err := s.settle(ctx, run, orderID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// CancelAll cancels every open group of the order and reports how many changed.
func (s *Service) CancelAll(ctx context.Context, run *application.Run, orderID string) (int, error) {
	groups, err := s.groups.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, g := range groups {
		if g.Shipment.Terminal() {
			continue
		}
		moved, err := s.moveGroup(ctx, g.OrderID, g.SupplierID, func(g *domain.Group) error {
			return g.Advance(domain.ShipmentCancelled, s.now())
		})
		if errors.Is(err, domain.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
		_ = run.Publish(ctx, s.publisher, domain.NewSupplierStatusChangedEvent(moved))
	}
	return n, nil
}

var errCaughtUp = errors.New("fulfillment: group already at target")

// CatchUp steps every live group that is behind target forward one status at a time,
// publishing each step. Groups already at or past target are left alone.
func (s *Service) CatchUp(ctx context.Context, run *application.Run, orderID string, target domain.ShipmentStatus) (int, error) {
	if target == domain.ShipmentCancelled {
		return 0, fmt.Errorf("%w: catch up to %s", domain.ErrInvalidTransition, target)
	}
	groups, err := s.loadOrOpen(ctx, run, orderID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, g := range groups {
		for {
			moved, err := s.moveGroup(ctx, g.OrderID, g.SupplierID, func(g *domain.Group) error {
				next, ok := g.Shipment.Next()
				if !ok || g.Shipment == domain.ShipmentCancelled || g.Shipment >= target {
					return errCaughtUp
				}
				return g.Advance(next, s.now())
			})
			if errors.Is(err, errCaughtUp) {
				break
			}
			if err != nil {
				return n, err
			}
			n++
			_ = run.Publish(ctx, s.publisher, domain.NewSupplierStatusChangedEvent(moved))
		}
	}
	return n, nil
}

// moveGroup applies step to a fresh read of the group and writes the shipment back guarded
// on the status it was read at, rereading when another writer got there first.
func (s *Service) moveGroup(ctx context.Context, orderID, supplierID string, step func(*domain.Group) error) (*domain.Group, error) {
	for attempt := 1; ; attempt++ {
		g, err := s.groups.Get(ctx, orderID, supplierID)
		if err != nil {
			return nil, err
		}
		from := g.Shipment
		if err := step(g); err != nil {
			return nil, err
		}
		err = s.groups.UpdateShipment(ctx, g, from)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxWriteAttempts {
			return nil, err
		}
	}
}
