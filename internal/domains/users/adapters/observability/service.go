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

	"github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	userports "github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

const tracerName = "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/observability/service"

// Service decorates the user service with tracing, logging, and metrics.
type Service struct {
	inner   userports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
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

func (s *Service) Register(ctx context.Context, input usertypes.RegisterInput) (*usertypes.UserProjection, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()
	result, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register user")
	}
	span.SetAttributes(attribute.Int64("user.id", result.Entity.ID))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "user registered", slog.Int64("user.id", result.Entity.ID))
	return result, nil
}

func (s *Service) Authenticate(ctx context.Context, credentials usertypes.Credentials) (*authz.Token, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Authenticate")
	defer span.End()
	token, err := s.inner.Authenticate(ctx, credentials)
	if err != nil {
		s.metrics.recordLogin(ctx, false)
		return nil, s.handleError(ctx, span, err, "login failed")
	}
	s.metrics.recordLogin(ctx, true)
	return token, nil
}

func (s *Service) Logout(ctx context.Context, actor authz.Actor, tokenID string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Logout", trace.WithAttributes(attribute.Int64("actor.id", actor.ID)))
	defer span.End()
	if err := s.inner.Logout(ctx, actor, tokenID); err != nil {
		return s.handleError(ctx, span, err, "logout failed", slog.Int64("actor.id", actor.ID))
	}
	return nil
}

func (s *Service) SessionActive(ctx context.Context, tokenID string) (bool, error) {
	active, err := s.inner.SessionActive(ctx, tokenID)
	if err != nil {
		s.logError(ctx, slog.LevelError, "session lookup failed", err)
	}
	return active, err
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) (*usertypes.UserProjection, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int64("actor.id", actor.ID), attribute.Int64("user.id", id.ID)))
	defer span.End()
	result, err := s.inner.Get(ctx, actor, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load user", slog.Int64("user.id", id.ID))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, actor authz.Actor) ([]*usertypes.UserProjection, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.List", trace.WithAttributes(attribute.Int64("actor.id", actor.ID)))
	defer span.End()
	result, err := s.inner.List(ctx, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list users")
	}
	span.SetAttributes(attribute.Int("user.count", len(result)))
	return result, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int64("actor.id", actor.ID), attribute.Int64("user.id", id.ID)))
	defer span.End()
	if err := s.inner.Delete(ctx, actor, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete user", slog.Int64("user.id", id.ID))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "user deleted", slog.Int64("user.id", id.ID), slog.Int64("actor.id", actor.ID))
	return nil
}

func (s *Service) AssignRole(ctx context.Context, input usertypes.AssignRoleInput) (*usertypes.UserProjection, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.AssignRole", trace.WithAttributes(attribute.Int64("user.id", input.ID), attribute.String("user.role", input.Role)))
	defer span.End()
	result, err := s.inner.AssignRole(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to assign role", slog.Int64("user.id", input.ID))
	}
	s.logInfo(ctx, "role assigned", slog.Int64("user.id", input.ID), slog.String("role", string(result.Entity.Role)))
	return result, nil
}

// handleError keeps rejections out of error-level logs and span status.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if expected(err) {
		span.SetAttributes(attribute.String("error.kind", "rejected"))
		s.logError(ctx, slog.LevelInfo, msg, err, attrs...)
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logError(ctx, slog.LevelError, msg, err, attrs...)
	return err
}

func expected(err error) bool {
	for _, target := range []error{
		application.ErrInvalidInput,
		application.ErrAuthentication,
		application.ErrConflict,
		userports.ErrNotFound,
		authz.ErrUnauthenticated,
		authz.ErrForbidden,
		authz.ErrNotOwner,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

type serviceMetrics struct {
	usersCreated metric.Int64Counter
	usersDeleted metric.Int64Counter
	logins       metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("users.service.created", metric.WithDescription("Number of users registered"))
	deleted, _ := m.Int64Counter("users.service.deleted", metric.WithDescription("Number of users deleted"))
	logins, _ := m.Int64Counter("users.service.logins", metric.WithDescription("Number of login attempts"))
	return serviceMetrics{usersCreated: created, usersDeleted: deleted, logins: logins}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.usersCreated != nil {
		m.usersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.usersDeleted != nil {
		m.usersDeleted.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordLogin(ctx context.Context, success bool) {
	if m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Service = (*Service)(nil)
