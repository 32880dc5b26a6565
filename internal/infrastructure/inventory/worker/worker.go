package worker

import (
	"context"
	"sort"
	"sync"

	dominventory "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
	"github.com/Barrister1990/agrilink-sub000/internal/observability/logctx"
)

// StockWatcher follows inventory.stock_changed and keeps the set of products
// whose stock has reached zero.
type StockWatcher struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger

	mu       sync.Mutex
	depleted map[string]struct{}
}

func New(subscriber domoutbox.Subscriber, logger observability.Logger) *StockWatcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &StockWatcher{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "inventory_worker")),
		depleted:   make(map[string]struct{}),
	}
}

func (w *StockWatcher) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dominventory.StockChangedEvent{}.EventName(), w.handleStockChanged)
}

func (w *StockWatcher) handleStockChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(dominventory.StockChangedEvent)
	if !ok {
		return nil
	}
	logger := logctx.FromOr(ctx, w.log)
	fields := []observability.Field{
		observability.F("order_id", evt.OrderID),
		observability.F("product_id", evt.ProductID),
		observability.F("requested", evt.Requested),
		observability.F("stock", evt.Stock),
	}

	w.mu.Lock()
	if evt.Stock <= 0 {
		w.depleted[evt.ProductID] = struct{}{}
	} else {
		delete(w.depleted, evt.ProductID)
	}
	w.mu.Unlock()

	if evt.Stock <= 0 {
		logger.Warn("stock_depleted", fields...)
		return nil
	}
	logger.Info("stock_decremented", fields...)
	return nil
}

// Depleted returns the ids of products last seen at zero stock, sorted.
func (w *StockWatcher) Depleted() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.depleted))
	for id := range w.depleted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
