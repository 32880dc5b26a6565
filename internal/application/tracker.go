package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Barrister1990/agrilink-sub000/internal/domain/outbox"
	"github.com/Barrister1990/agrilink-sub000/internal/observability"
	"github.com/Barrister1990/agrilink-sub000/internal/observability/logctx"
)

const (
	SpanPrefix     = "UC."
	PublishPeer    = "outbox"
	PublishTimeout = 300 * time.Millisecond
)

// Tracker holds the tracer, base logger and RED instruments shared by a use case or worker.
type Tracker struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewTracker(tel observability.Observability, service string) *Tracker {
	tel = observability.OrNop(tel)
	m := tel.Metrics()
	return &Tracker{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (p *Tracker) Logger() observability.Logger { return p.log }

// Run is one instrumented execution. Outcome and Status end up on the span,
// the RED metrics and the use_case_done log line.
type Run struct {
	Span    trace.Span
	Log     observability.Logger
	Outcome string
	Status  string

	tracker *Tracker
	useCase string
	start   time.Time
	fields  []observability.Field
}

// Begin opens the span and binds a use-case logger onto the returned context.
func (p *Tracker) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := p.tracer.Start(ctx, SpanPrefix+spanName, attrs...)

	logger := logctx.FromOr(ctx, p.log).With(observability.F("use_case", useCase))
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	return ctx, &Run{
		Span:    span,
		Log:     logger,
		Outcome: "success",
		Status:  "OK",
		tracker: p,
		useCase: useCase,
		start:   time.Now(),
	}
}

// Fail marks the run as an error with a machine-readable status.
func (r *Run) Fail(status string) {
	r.Outcome, r.Status = "error", status
}

// Field adds a field to the closing log line.
func (r *Run) Field(k string, v any) {
	r.fields = append(r.fields, observability.F(k, v))
}

// End closes the span, records RED metrics and logs use_case_done.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.Outcome == "success" {
		r.Fail("ERROR")
	}

	if r.Span != nil {
		if err != nil {
			r.Span.RecordError(err)
			r.Span.SetStatus(codes.Error, r.Status)
		} else {
			r.Span.SetStatus(codes.Ok, r.Status)
		}
		r.Span.End()
	}

	p := r.tracker
	p.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.Outcome),
	)
	p.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", r.Outcome),
		observability.F("status", r.Status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.Log.Info("use_case_done", fields...)
}

// External records one outbound call.
func (p *Tracker) External(peer, endpoint, outcome string, start time.Time) {
	p.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	p.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// Publish sends e with a short timeout. Failures are recorded on the run but never
// fail it; the returned error is informational.
func (r *Run) Publish(ctx context.Context, pub domoutbox.Publisher, e domoutbox.Event) error {
	if pub == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := pub.Publish(pubCtx, e)
	switch {
	case err != nil:
		outcome = "error"
	case pubCtx.Err() != nil:
		outcome, err = "canceled", pubCtx.Err()
	}
	r.tracker.External(PublishPeer, e.EventName(), outcome, start)

	if err != nil {
		if r.Span != nil {
			r.Span.RecordError(err)
		}
		r.Field("event_publish_error", err.Error())
		r.Log.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
	return err
}
