package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/auto-loan-origination/internal/app/api"
	platformobservability "github.com/Apurer/auto-loan-origination/internal/platform/observability"
	appactivities "github.com/Apurer/auto-loan-origination/internal/platform/temporal/activities/applications"
	appworkflows "github.com/Apurer/auto-loan-origination/internal/platform/temporal/workflows/applications"
)

func main() {
	ctx := context.Background()
	const serviceName = "loan-origination-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	if cfg.PostgresDSN == "" {
		logger.Warn("worker running on in-memory repositories; drafts it creates are invisible to the API")
	}
	components, err := api.BuildComponents(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build services", slog.String("error", err.Error()))
		return
	}
	defer components.Close()
	activities := appactivities.NewActivities(components.Applications)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, appworkflows.ApplicationCreationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appworkflows.ApplicationCreationWorkflow, workflow.RegisterOptions{Name: appworkflows.ApplicationCreationWorkflowName})
	w.RegisterActivityWithOptions(activities.PersistApplication, activity.RegisterOptions{Name: appactivities.PersistApplicationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", appworkflows.ApplicationCreationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
