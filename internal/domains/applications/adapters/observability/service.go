package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

const tracerName = "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/observability/service"

// Service decorates the applications port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func actorAttrs(actor authz.Actor) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	}
}

// CreateApplication stores a numbered draft with instrumentation.
func (s *Service) CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateApplication", actorAttrs(actor)...)
	defer span.End()

	s.logInfo(ctx, "creating application", slog.Int64("actor.id", actor.ID))
	result, err := s.inner.CreateApplication(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create application", slog.Int64("actor.id", actor.ID))
	}
	app := result.Entity
	span.SetAttributes(attribute.Int64("application.id", app.ID), attribute.String("application.number", app.Number.String()))
	s.metrics.recordCreated(ctx, app.Number)
	s.logInfo(ctx, "application created", slog.Int64("application.id", app.ID), slog.String("application.number", app.Number.String()))
	return result, nil
}

// UpdateApplication applies a partial update.
func (s *Service) UpdateApplication(ctx context.Context, actor authz.Actor, input apptypes.UpdateApplicationInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateApplication", append(actorAttrs(actor), attribute.Int64("application.id", input.ID))...)
	defer span.End()

	result, err := s.inner.UpdateApplication(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update application", slog.Int64("application.id", input.ID))
	}
	s.logInfo(ctx, "application updated", slog.Int64("application.id", input.ID), slog.Bool("terms_changed", input.HasTermChanges()))
	return result, nil
}

// SubmitApplication moves a draft to submitted.
func (s *Service) SubmitApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.SubmitApplication", append(actorAttrs(actor), attribute.Int64("application.id", id.ID))...)
	defer span.End()

	result, err := s.inner.SubmitApplication(ctx, actor, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to submit application", slog.Int64("application.id", id.ID))
	}
	s.metrics.recordSubmitted(ctx)
	s.logInfo(ctx, "application submitted", slog.Int64("application.id", id.ID))
	return result, nil
}

// GetApplication loads a single application.
func (s *Service) GetApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetApplication", append(actorAttrs(actor), attribute.Int64("application.id", id.ID))...)
	defer span.End()

	result, err := s.inner.GetApplication(ctx, actor, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load application", slog.Int64("application.id", id.ID))
	}
	span.SetAttributes(attribute.String("application.status", string(result.Entity.Status)))
	return result, nil
}

// ListApplications pages through applications.
func (s *Service) ListApplications(ctx context.Context, actor authz.Actor, query apptypes.ListApplicationsQuery) (*apptypes.ApplicationPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListApplications", append(actorAttrs(actor),
		attribute.StringSlice("application.statuses.requested", query.Statuses),
		attribute.Int("page", query.Page),
	)...)
	defer span.End()

	result, err := s.inner.ListApplications(ctx, actor, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list applications", slog.Any("statuses", query.Statuses))
	}
	span.SetAttributes(attribute.Int("application.result.count", len(result.Items)), attribute.Int64("application.result.total", result.Total))
	s.logInfo(ctx, "listed applications", slog.Int("count", len(result.Items)), slog.Int64("total", result.Total))
	return result, nil
}

// DeleteApplication removes an application and its children.
func (s *Service) DeleteApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteApplication", append(actorAttrs(actor), attribute.Int64("application.id", id.ID))...)
	defer span.End()

	if err := s.inner.DeleteApplication(ctx, actor, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete application", slog.Int64("application.id", id.ID))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "application deleted", slog.Int64("application.id", id.ID))
	return nil
}

// DeleteApplicationsOwnedBy removes every application of a deleted user.
func (s *Service) DeleteApplicationsOwnedBy(ctx context.Context, ownerID int64) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteApplicationsOwnedBy", attribute.Int64("owner.id", ownerID))
	defer span.End()

	if err := s.inner.DeleteApplicationsOwnedBy(ctx, ownerID); err != nil {
		return s.handleError(ctx, span, err, "failed to delete owned applications", slog.Int64("owner.id", ownerID))
	}
	s.logInfo(ctx, "owned applications deleted", slog.Int64("owner.id", ownerID))
	return nil
}

// GetReview loads the review checklist.
func (s *Service) GetReview(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ReviewProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetReview", append(actorAttrs(actor), attribute.Int64("application.id", id.ID))...)
	defer span.End()

	result, err := s.inner.GetReview(ctx, actor, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load review", slog.Int64("application.id", id.ID))
	}
	return result, nil
}

// SetReviewCompleteness sets one checklist flag.
func (s *Service) SetReviewCompleteness(ctx context.Context, actor authz.Actor, input apptypes.SetReviewCompletenessInput) (*apptypes.ReviewProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.SetReviewCompleteness", append(actorAttrs(actor),
		attribute.Int64("application.id", input.ApplicationID),
		attribute.String("review.dimension", input.Dimension),
		attribute.Bool("review.value", input.Value),
	)...)
	defer span.End()

	result, err := s.inner.SetReviewCompleteness(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to set review flag",
			slog.Int64("application.id", input.ApplicationID), slog.String("dimension", input.Dimension))
	}
	review := result.Entity
	span.SetAttributes(attribute.Bool("review.completed", review.Completed()))
	s.logInfo(ctx, "review flag set",
		slog.Int64("application.id", input.ApplicationID),
		slog.String("dimension", input.Dimension),
		slog.Bool("value", input.Value),
		slog.Bool("completed", review.Completed()),
	)
	return result, nil
}

// SetReviewNotes replaces the reviewer notes.
func (s *Service) SetReviewNotes(ctx context.Context, actor authz.Actor, input apptypes.SetReviewNotesInput) (*apptypes.ReviewProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.SetReviewNotes", append(actorAttrs(actor), attribute.Int64("application.id", input.ApplicationID))...)
	defer span.End()

	result, err := s.inner.SetReviewNotes(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to set review notes", slog.Int64("application.id", input.ApplicationID))
	}
	return result, nil
}

// RequestDocuments parks an application until documents arrive.
func (s *Service) RequestDocuments(ctx context.Context, actor authz.Actor, input apptypes.RequestDocumentsInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.RequestDocuments", append(actorAttrs(actor), attribute.Int64("application.id", input.ApplicationID))...)
	defer span.End()

	result, err := s.inner.RequestDocuments(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to request documents", slog.Int64("application.id", input.ApplicationID))
	}
	s.metrics.recordDecided(ctx, result.Entity.Status)
	s.logInfo(ctx, "documents requested", slog.Int64("application.id", input.ApplicationID))
	return result, nil
}

// DecideApplication applies a reviewer disposition.
func (s *Service) DecideApplication(ctx context.Context, actor authz.Actor, input apptypes.DecideApplicationInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.DecideApplication", append(actorAttrs(actor),
		attribute.Int64("application.id", input.ApplicationID),
		attribute.String("application.disposition", input.Disposition),
	)...)
	defer span.End()

	result, err := s.inner.DecideApplication(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to decide application",
			slog.Int64("application.id", input.ApplicationID), slog.String("disposition", input.Disposition))
	}
	s.metrics.recordDecided(ctx, result.Entity.Status)
	s.logInfo(ctx, "application decided", slog.Int64("application.id", input.ApplicationID), slog.String("status", string(result.Entity.Status)))
	return result, nil
}

// AttachDocument stores a document for an application.
func (s *Service) AttachDocument(ctx context.Context, actor authz.Actor, input apptypes.AttachDocumentInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.AttachDocument", append(actorAttrs(actor),
		attribute.Int64("application.id", input.ApplicationID),
		attribute.String("document.name", input.Name),
		attribute.Int("document.size", len(input.Data)),
	)...)
	defer span.End()

	result, err := s.inner.AttachDocument(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to attach document", slog.Int64("application.id", input.ApplicationID))
	}
	s.logInfo(ctx, "document attached", slog.Int64("application.id", input.ApplicationID), slog.String("document.name", input.Name))
	return result, nil
}

// RemoveDocument detaches a document.
func (s *Service) RemoveDocument(ctx context.Context, actor authz.Actor, input apptypes.RemoveDocumentInput) (*apptypes.ApplicationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.RemoveDocument", append(actorAttrs(actor),
		attribute.Int64("application.id", input.ApplicationID),
		attribute.Int64("document.id", input.DocumentID),
	)...)
	defer span.End()

	result, err := s.inner.RemoveDocument(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to remove document", slog.Int64("application.id", input.ApplicationID))
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

// handleError records err on the span. Rejected requests are logged below
// error level and leave the span status unset.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if level, expected := classify(err); expected {
		if span != nil {
			span.SetAttributes(attribute.String("error.kind", kind(err)))
		}
		s.log(ctx, level, msg, err, attrs...)
		return err
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.log(ctx, slog.LevelError, msg, err, attrs...)
	return err
}

func classify(err error) (slog.Level, bool) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated), errors.Is(err, authz.ErrNotOwner), errors.Is(err, authz.ErrForbidden):
		return slog.LevelWarn, true
	case errors.Is(err, application.ErrInvalidInput), errors.Is(err, application.ErrConflict),
		errors.Is(err, ports.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return slog.LevelInfo, true
	default:
		return slog.LevelError, false
	}
}

func kind(err error) string {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, authz.ErrNotOwner), errors.Is(err, authz.ErrForbidden):
		return "forbidden"
	case errors.Is(err, application.ErrConflict):
		return "conflict"
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return "not_found"
	default:
		return "invalid_input"
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created         metric.Int64Counter
	submitted       metric.Int64Counter
	decided         metric.Int64Counter
	deleted         metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("applications.service.created", metric.WithDescription("Number of applications created"))
	submitted, _ := m.Int64Counter("applications.service.submitted", metric.WithDescription("Number of applications submitted"))
	decided, _ := m.Int64Counter("applications.service.decided", metric.WithDescription("Number of reviewer status decisions"))
	deleted, _ := m.Int64Counter("applications.service.deleted", metric.WithDescription("Number of applications deleted"))
	return serviceMetrics{
		created:         created,
		submitted:       submitted,
		decided:         decided,
		deleted:         deleted,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, number domain.ApplicationNumber) {
	jurisdiction, _, _, _ := domain.ParseApplicationNumber(number.String())
	addCounter(ctx, m.created, 1, attribute.String("application.jurisdiction", jurisdiction))
}

func (m serviceMetrics) recordSubmitted(ctx context.Context) {
	addCounter(ctx, m.submitted, 1)
}

func (m serviceMetrics) recordDecided(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.decided, 1, attribute.String("application.status", string(status)))
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	addCounter(ctx, m.deleted, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
