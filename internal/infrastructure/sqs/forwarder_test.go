package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
)

type sentinelEvent struct {
	OrderID string `json:"order_id"`
}

func (sentinelEvent) EventName() string { return "order.placed" }

type recordingClient struct {
	sent []*awssqs.SendMessageInput
	err  error
}

func (c *recordingClient) SendMessage(_ context.Context, in *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, in)
	return &awssqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "env-1" }

type subscriberStub struct{ names []string }

func (s *subscriberStub) Subscribe(name string, _ domoutbox.Handler) { s.names = append(s.names, name) }

func TestForwardSendsEnvelope(t *testing.T) {
	client := &recordingClient{}
	f := NewForwarder(client, "https://sqs.local/000/orders", fixedIDs{}, nil)
	f.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, f.Forward(context.Background(), sentinelEvent{OrderID: "o-1"}))
	require.Len(t, client.sent, 1)

	in := client.sent[0]
	assert.Nil(t, in.MessageGroupId)
	assert.Equal(t, "order.placed", aws.ToString(in.MessageAttributes["event_name"].StringValue))

	var env domoutbox.Envelope
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &env))
	assert.Equal(t, "env-1", env.ID)
	assert.Equal(t, "order.placed", env.Name)
	assert.JSONEq(t, `{"order_id":"o-1"}`, string(env.Payload))
}

func TestForwardFifoQueueSetsGroupAndDedup(t *testing.T) {
	client := &recordingClient{}
	f := NewForwarder(client, "https://sqs.local/000/orders.fifo", fixedIDs{}, nil)

	require.NoError(t, f.Forward(context.Background(), sentinelEvent{OrderID: "o-1"}))
	assert.Equal(t, "order.placed", aws.ToString(client.sent[0].MessageGroupId))
	assert.Equal(t, "env-1", aws.ToString(client.sent[0].MessageDeduplicationId))
}

func TestForwardPropagatesSendError(t *testing.T) {
	boom := errors.New("throttled")
	f := NewForwarder(&recordingClient{err: boom}, "q", fixedIDs{}, nil)
	assert.ErrorIs(t, f.Forward(context.Background(), sentinelEvent{}), boom)
}

func TestStartSubscribesEveryEvent(t *testing.T) {
	sub := &subscriberStub{}
	NewForwarder(&recordingClient{}, "q", fixedIDs{}, nil).Start(sub, "order.placed", "order.status_changed")
	assert.Equal(t, []string{"order.placed", "order.status_changed"}, sub.names)
}
