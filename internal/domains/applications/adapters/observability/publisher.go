package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

// EventPublisher decorates an event sink with tracing, logging, and per-event counters.
type EventPublisher struct {
	inner           ports.EventPublisher
	tracer          trace.Tracer
	logger          *slog.Logger
	published       metric.Int64Counter
	reviewCompleted metric.Int64Counter
}

// PublisherOption customizes the event publisher decorator.
type PublisherOption func(*EventPublisher)

// WithPublisherLogger injects a slog logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *EventPublisher) { p.logger = logger }
}

// WithPublisherTracer injects a tracer implementation.
func WithPublisherTracer(tr trace.Tracer) PublisherOption {
	return func(p *EventPublisher) { p.tracer = tr }
}

// WithPublisherMeter creates the event counters on m.
func WithPublisherMeter(m metric.Meter) PublisherOption {
	return func(p *EventPublisher) {
		if m == nil {
			return
		}
		p.published, _ = m.Int64Counter("applications.events.published", metric.WithDescription("Number of domain events published"))
		p.reviewCompleted, _ = m.Int64Counter("applications.service.review_completed", metric.WithDescription("Number of review checklists completed"))
	}
}

// NewEventPublisher wraps inner.
func NewEventPublisher(inner ports.EventPublisher, opts ...PublisherOption) ports.EventPublisher {
	p := &EventPublisher{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: defaultLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inner == nil {
		p.inner = ports.NoopEventPublisher
	}
	if p.tracer == nil {
		p.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if p.logger == nil {
		p.logger = defaultLogger()
	}
	return p
}

// Publish forwards events and counts the ones that were delivered.
func (p *EventPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish", trace.WithAttributes(attribute.StringSlice("event.names", names)))
	defer span.End()

	if err := p.inner.Publish(ctx, events...); err != nil {
		span.RecordError(err)
		p.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish events", slog.Any("events", names), slog.String("error", err.Error()))
		return err
	}
	for _, e := range events {
		addCounter(ctx, p.published, 1, attribute.String("event.name", e.EventName()))
		if _, ok := e.(domain.ReviewCompleted); ok {
			addCounter(ctx, p.reviewCompleted, 1)
		}
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "events published", slog.Any("events", names))
	return nil
}

var _ ports.EventPublisher = (*EventPublisher)(nil)
