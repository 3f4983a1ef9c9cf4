package ports

import (
	"context"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// Service exposes application bounded context use cases to adapters.
type Service interface {
	CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error)
	UpdateApplication(ctx context.Context, actor authz.Actor, input apptypes.UpdateApplicationInput) (*apptypes.ApplicationProjection, error)
	SubmitApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error)
	GetApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error)
	ListApplications(ctx context.Context, actor authz.Actor, query apptypes.ListApplicationsQuery) (*apptypes.ApplicationPage, error)
	DeleteApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) error
	GetReview(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ReviewProjection, error)
	SetReviewCompleteness(ctx context.Context, actor authz.Actor, input apptypes.SetReviewCompletenessInput) (*apptypes.ReviewProjection, error)
	SetReviewNotes(ctx context.Context, actor authz.Actor, input apptypes.SetReviewNotesInput) (*apptypes.ReviewProjection, error)
	RequestDocuments(ctx context.Context, actor authz.Actor, input apptypes.RequestDocumentsInput) (*apptypes.ApplicationProjection, error)
	DecideApplication(ctx context.Context, actor authz.Actor, input apptypes.DecideApplicationInput) (*apptypes.ApplicationProjection, error)
	AttachDocument(ctx context.Context, actor authz.Actor, input apptypes.AttachDocumentInput) (*apptypes.ApplicationProjection, error)
	RemoveDocument(ctx context.Context, actor authz.Actor, input apptypes.RemoveDocumentInput) (*apptypes.ApplicationProjection, error)
	// DeleteApplicationsOwnedBy removes every application of a user being deleted.
	DeleteApplicationsOwnedBy(ctx context.Context, ownerID int64) error
}
