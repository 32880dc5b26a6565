package order

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Barrister1990/agrilink-sub000/internal/application"
	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const useCaseOrderTransition = "order.transition_status"

// maxWriteAttempts bounds the reload-and-retry loop when another writer moved the status first.
const maxWriteAttempts = 3

type TransitionStatusInput struct {
	OrderID string
	Status  domain.Status
	Reason  string
}

// TransitionStatusUseCase applies a staff status change and publishes order.status_changed.
type TransitionStatusUseCase struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	tracker   *application.Tracker
}

var _ application.UseCase[TransitionStatusInput, *domain.Order] = (*TransitionStatusUseCase)(nil)

func NewTransitionStatusUseCase(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *TransitionStatusUseCase {
	return &TransitionStatusUseCase{repo: repo, publisher: publisher, tracker: application.NewTracker(tel, orderService)}
}

func (uc *TransitionStatusUseCase) Execute(ctx context.Context, cmd TransitionStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.tracker.Begin(ctx, useCaseOrderTransition, "TransitionStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status.String()),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, newValidation("order id is required")
	}

	var (
		entity *domain.Order
		from   domain.Status
	)
	for attempt := 1; ; attempt++ {
		entity, err = uc.repo.Get(ctx, cmd.OrderID)
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return nil, wrapRepositoryError(err)
		}

		from = entity.Status
		if terr := entity.TransitionTo(cmd.Status, cmd.Reason); terr != nil {
			run.Fail("STATE_TRANSITION_FAILED")
			return nil, terr
		}
		uerr := uc.repo.UpdateStatus(ctx, entity, from)
		if uerr == nil {
			break
		}
		if errors.Is(uerr, domain.ErrConflict) && attempt < maxWriteAttempts {
			run.Field("retries", attempt)
			continue
		}
		run.Fail("ORDER_UPDATE_FAILED")
		return nil, wrapRepositoryError(uerr)
	}

	run.Field("from", from.String())
	run.Field("to", entity.Status.String())
	_ = run.Publish(ctx, uc.publisher, domain.NewOrderStatusChangedEvent(entity, from))
	return entity, nil
}

// Reader serves order lookups for the HTTP layer.
type Reader struct {
	repo domain.Repository
}

func NewReader(repo domain.Repository) *Reader { return &Reader{repo: repo} }

func (r *Reader) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, newValidation("order id is required")
	}
	o, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}

func (r *Reader) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	orders, err := r.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", wrapRepositoryError(err))
	}
	return orders, nil
}
