package outbox

import (
	"context"
	"encoding/json"
	"time"
)

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Envelope is the wire form used when an event leaves the process.
type Envelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	TraceID    string          `json:"trace_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Seal marshals e into an envelope.
func Seal(id string, e Event, traceID string, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         id,
		Name:       e.EventName(),
		TraceID:    traceID,
		OccurredAt: now,
		Payload:    payload,
	}, nil
}
