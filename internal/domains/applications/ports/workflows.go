package ports

import (
	"context"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// WorkflowOrchestrator exposes durable workflow operations required by the applications bounded context.
type WorkflowOrchestrator interface {
	CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error)
}
