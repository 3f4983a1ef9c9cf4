package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	appactivities "github.com/Apurer/auto-loan-origination/internal/platform/temporal/activities/applications"
	appworkflows "github.com/Apurer/auto-loan-origination/internal/platform/temporal/workflows/applications"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalApplicationWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineApplicationWorkflows)(nil)
)

// TemporalApplicationWorkflows starts application workflows on a Temporal cluster.
type TemporalApplicationWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalApplicationWorkflows wires a Temporal client into the orchestrator.
func NewTemporalApplicationWorkflows(c client.Client) *TemporalApplicationWorkflows {
	return &TemporalApplicationWorkflows{client: c, taskQueue: appworkflows.ApplicationCreationTaskQueue}
}

// CreateApplication runs the creation workflow and waits for the numbered draft.
func (o *TemporalApplicationWorkflows) CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal application workflows not configured")
	}
	if !actor.Authenticated() {
		return nil, authz.ErrUnauthenticated
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCreationWorkflowID(actor, input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		appworkflows.ApplicationCreationWorkflow,
		appworkflows.ApplicationCreationWorkflowInput{Actor: actor, Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			return awaitProjection(ctx, o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId))
		}
		return nil, err
	}
	return awaitProjection(ctx, run)
}

func awaitProjection(ctx context.Context, run client.WorkflowRun) (*apptypes.ApplicationProjection, error) {
	var projection apptypes.ApplicationProjection
	if err := run.Get(ctx, &projection); err != nil {
		return nil, appactivities.DecodeError(err)
	}
	return &projection, nil
}

// InlineApplicationWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineApplicationWorkflows struct {
	service ports.Service
}

// NewInlineApplicationWorkflows wraps the applications service for synchronous execution.
func NewInlineApplicationWorkflows(service ports.Service) *InlineApplicationWorkflows {
	return &InlineApplicationWorkflows{service: service}
}

// CreateApplication delegates to the application service without durable orchestration.
func (o *InlineApplicationWorkflows) CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline application workflows not configured")
	}
	return o.service.CreateApplication(ctx, actor, input)
}

func buildCreationWorkflowID(actor authz.Actor, input apptypes.CreateApplicationInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("application-creation-%d-idem-%s", actor.ID, hashIdempotencyKey(key))
	}
	return fmt.Sprintf("application-creation-%d-%s", actor.ID, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
