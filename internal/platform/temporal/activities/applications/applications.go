package applications

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	appports "github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// PersistApplicationActivityName numbers and stores a new application.
const PersistApplicationActivityName = "applications.activities.PersistApplication"

// PersistApplicationInput carries the acting user with the create command.
type PersistApplicationInput struct {
	Actor   authz.Actor
	Command apptypes.CreateApplicationInput
}

// Activities groups activities that operate on the applications bounded context.
type Activities struct {
	service appports.Service
}

// NewActivities wires the applications service into the Temporal activities bundle.
func NewActivities(service appports.Service) *Activities {
	return &Activities{service: service}
}

// PersistApplication creates the application. Rejections are returned as
// non-retryable application errors so the workflow fails fast.
func (a *Activities) PersistApplication(ctx context.Context, input PersistApplicationInput) (*apptypes.ApplicationProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("application persist activity not initialized", "ownerId", input.Actor.ID)
		return nil, errors.New("application persist activity not initialized")
	}
	logger.Info("PersistApplication activity started", "ownerId", input.Actor.ID)
	projection, err := a.service.CreateApplication(ctx, input.Actor, input.Command)
	if err != nil {
		logger.Error("PersistApplication activity failed", "ownerId", input.Actor.ID, "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("PersistApplication activity completed",
		"applicationId", projection.Entity.ID,
		"applicationNumber", projection.Entity.Number.String(),
	)
	return projection, nil
}
