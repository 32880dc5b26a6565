package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
)

const peer = "sqs"

// Client is the subset of the SQS API the forwarder uses.
type Client interface {
	SendMessage(ctx context.Context, in *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

type IDGenerator interface {
	NewID() string
}

func NewClient(ctx context.Context, region, endpoint string) (*awssqs.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sqs: load aws config: %w", err)
	}
	return awssqs.NewFromConfig(cfg, func(o *awssqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Forwarder copies selected in-process events onto an SQS queue as JSON envelopes.
type Forwarder struct {
	client   Client
	queueURL string
	fifo     bool
	ids      IDGenerator
	now      func() time.Time

	log     observability.Logger
	counter observability.Counter
	latency observability.Histogram
}

func NewForwarder(client Client, queueURL string, ids IDGenerator, tel observability.Observability) *Forwarder {
	tel = observability.OrNop(tel)
	return &Forwarder{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		ids:      ids,
		now:      func() time.Time { return time.Now().UTC() },
		log:      tel.Logger().With(observability.F("component", "sqs_forwarder")),
		counter:  tel.Metrics().Counter(observability.MExternalRequests),
		latency:  tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// Start subscribes the forwarder to every named event.
func (f *Forwarder) Start(sub domoutbox.Subscriber, events ...string) {
	for _, name := range events {
		sub.Subscribe(name, f.Forward)
	}
	f.log.Info("forwarder_started", observability.F("queue_url", f.queueURL), observability.F("events", events))
}

// Forward sends one event. It is a domoutbox.Handler.
func (f *Forwarder) Forward(ctx context.Context, e domoutbox.Event) error {
	start := time.Now()
	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	env, err := domoutbox.Seal(f.ids.NewID(), e, traceID, f.now())
	if err != nil {
		return fmt.Errorf("sqs: seal %s: %w", e.EventName(), err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("sqs: encode %s: %w", e.EventName(), err)
	}

	in := &awssqs.SendMessageInput{
		QueueUrl:    aws.String(f.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_name": {DataType: aws.String("String"), StringValue: aws.String(env.Name)},
		},
	}
	if f.fifo {
		in.MessageGroupId = aws.String(env.Name)
		in.MessageDeduplicationId = aws.String(env.ID)
	}

	_, err = f.client.SendMessage(ctx, in)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	f.counter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", env.Name),
		observability.L("outcome", outcome),
	)
	f.latency.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", env.Name),
	)
	if err != nil {
		f.log.Warn("event_forward_failed",
			observability.F("event", env.Name),
			observability.F("envelope_id", env.ID),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("sqs: send %s: %w", env.Name, err)
	}
	return nil
}
