package applications

import (
	"go.temporal.io/sdk/workflow"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	appactivities "github.com/Apurer/auto-loan-origination/internal/platform/temporal/activities/applications"
	"github.com/Apurer/auto-loan-origination/internal/platform/temporal/sequences"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

const (
	// ApplicationCreationWorkflowName is the public identifier for registering the workflow.
	ApplicationCreationWorkflowName = "applications.workflows.Creation"
	// ApplicationCreationTaskQueue is the queue consumed by the worker processing application workflows.
	ApplicationCreationTaskQueue = "LOAN_APPLICATION_CREATION"
)

// ApplicationCreationWorkflowInput captures the payload required to open a new application.
type ApplicationCreationWorkflowInput struct {
	Actor   authz.Actor
	Command apptypes.CreateApplicationInput
	TraceID string
}

// ApplicationCreationWorkflow numbers and persists a new draft application.
func ApplicationCreationWorkflow(ctx workflow.Context, input ApplicationCreationWorkflowInput) (*apptypes.ApplicationProjection, error) {
	logger := workflow.GetLogger(ctx)
	ownerID := input.Actor.ID
	logger.Info("ApplicationCreationWorkflow started", withTraceID(input.TraceID, "ownerId", ownerID)...)
	projection, err := sequences.RunApplicationCreationSequence(ctx, appactivities.PersistApplicationInput{
		Actor:   input.Actor,
		Command: input.Command,
	})
	if err != nil {
		logger.Error("ApplicationCreationWorkflow failed", withTraceID(input.TraceID, "ownerId", ownerID, "error", err)...)
		return nil, err
	}
	if projection != nil && projection.Entity != nil {
		logger.Info("ApplicationCreationWorkflow completed", withTraceID(input.TraceID,
			"applicationId", projection.Entity.ID,
			"applicationNumber", projection.Entity.Number.String(),
		)...)
	}
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
