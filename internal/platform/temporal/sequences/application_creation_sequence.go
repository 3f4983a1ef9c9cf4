package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	appactivities "github.com/Apurer/auto-loan-origination/internal/platform/temporal/activities/applications"
)

// RunApplicationCreationSequence executes the activities that number and persist an application.
func RunApplicationCreationSequence(ctx workflow.Context, input appactivities.PersistApplicationInput) (*apptypes.ApplicationProjection, error) {
	logger := workflow.GetLogger(ctx)
	ownerID := input.Actor.ID
	logger.Info("application creation sequence started", "ownerId", ownerID)
	persistOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: appactivities.NonRetryableErrorTypes,
		},
	}

	var projection apptypes.ApplicationProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, persistOptions), appactivities.PersistApplicationActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Error("application creation sequence failed", "ownerId", ownerID, "error", err)
		return nil, err
	}
	if projection.Entity != nil {
		logger.Info("application creation sequence persisted", "applicationId", projection.Entity.ID)
	}
	return &projection, nil
}
