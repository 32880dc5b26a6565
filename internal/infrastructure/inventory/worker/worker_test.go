package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominventory "github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

type subscriberStub struct {
	handlers map[string]domoutbox.Handler
}

func (s *subscriberStub) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]domoutbox.Handler)
	}
	s.handlers[name] = h
}

type entry struct {
	level, msg string
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]entry
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, entries: &[]entry{}}
}

func (l recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, entry{level, msg})
}

func (l recordingLogger) With(...observability.Field) observability.Logger { return l }
func (l recordingLogger) Debug(m string, _ ...observability.Field)         { l.add("debug", m) }
func (l recordingLogger) Info(m string, _ ...observability.Field)          { l.add("info", m) }
func (l recordingLogger) Warn(m string, _ ...observability.Field)          { l.add("warn", m) }
func (l recordingLogger) Error(m string, _ ...observability.Field)         { l.add("error", m) }

func TestStockWatcherTracksDepletion(t *testing.T) {
	sub := &subscriberStub{}
	logger := newRecordingLogger()
	w := New(sub, logger)
	w.Start()

	handle := sub.handlers[dominventory.StockChangedEvent{}.EventName()]
	require.NotNil(t, handle)
	ctx := context.Background()

	require.NoError(t, handle(ctx, dominventory.NewStockChangedEvent("o-1", "yam", 3, 7)))
	require.NoError(t, handle(ctx, dominventory.NewStockChangedEvent("o-2", "okra", 9, 0)))
	require.NoError(t, handle(ctx, dominventory.NewStockChangedEvent("o-3", "yam", 7, 0)))
	assert.Equal(t, []string{"okra", "yam"}, w.Depleted())

	require.NoError(t, handle(ctx, dominventory.NewStockChangedEvent("", "okra", 0, 12)))
	assert.Equal(t, []string{"yam"}, w.Depleted())

	assert.Equal(t, []entry{
		{"info", "stock_decremented"},
		{"warn", "stock_depleted"},
		{"warn", "stock_depleted"},
		{"info", "stock_decremented"},
	}, *logger.entries)
}

func TestStockWatcherIgnoresOtherEvents(t *testing.T) {
	w := New(nil, nil)
	w.Start()
	require.NoError(t, w.handleStockChanged(context.Background(), otherEvent{}))
	assert.Empty(t, w.Depleted())
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "other" }
