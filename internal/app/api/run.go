package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	loanserver "github.com/Apurer/auto-loan-origination/go"
	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	appworkflows "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/workflows"
	appports "github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	userhttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/http/mapper"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	platformobservability "github.com/Apurer/auto-loan-origination/internal/platform/observability"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// ServiceName identifies the API process in logs and traces.
const ServiceName = "loan-origination-api"

const shutdownTimeout = 10 * time.Second

// Run boots the loan origination HTTP API with observability, repositories and workflows
// wired, and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := BuildComponents(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	var workflows appports.WorkflowOrchestrator = appworkflows.NewInlineApplicationWorkflows(components.Applications)
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, creating applications inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = appworkflows.NewTemporalApplicationWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	responder := apierrors.NewResponder("",
		apierrors.WithMappers(apphttpmapper.MapError, userhttpmapper.MapError),
		apierrors.WithLogger(logger),
	)
	handlers := loanserver.Handlers{
		Applications: loanserver.NewApplicationAPI(components.Applications, workflows, responder),
		Users:        loanserver.NewUserAPI(components.Users, responder),
	}
	router := loanserver.NewRouter(
		handlers,
		auth.Middleware(components.Issuer, components.Users, responder),
		otelgin.Middleware(ServiceName),
	)
	// Uploaded files are served by this process only when stored locally under a relative base URL.
	if cfg.BlobDir != "" && strings.HasPrefix(cfg.BlobBaseURL, "/") {
		router.Static(cfg.BlobBaseURL, cfg.BlobDir)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("loan origination API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Observability derives the telemetry settings for a process.
func (c Config) Observability(serviceName string) platformobservability.Config {
	return platformobservability.Config{
		ServiceName:  serviceName,
		Environment:  c.Environment,
		LogLevel:     c.LogLevel,
		OTLPEndpoint: c.OTLPEndpoint,
		OTLPInsecure: c.OTLPInsecure,
	}
}

// ConnectTemporal dials Temporal with tracing and structured logging, unless disabled.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
