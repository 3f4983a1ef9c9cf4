package ports

import (
	"context"

	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// Service exposes user bounded context use cases to adapters.
type Service interface {
	Register(ctx context.Context, input usertypes.RegisterInput) (*usertypes.UserProjection, error)
	Authenticate(ctx context.Context, credentials usertypes.Credentials) (*authz.Token, error)
	Logout(ctx context.Context, actor authz.Actor, tokenID string) error
	SessionActive(ctx context.Context, tokenID string) (bool, error)
	Get(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) (*usertypes.UserProjection, error)
	List(ctx context.Context, actor authz.Actor) ([]*usertypes.UserProjection, error)
	Delete(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) error
	// AssignRole is an administrative operation run outside the request path.
	AssignRole(ctx context.Context, input usertypes.AssignRoleInput) (*usertypes.UserProjection, error)
}

// TokenIssuer signs credentials for an authenticated actor.
type TokenIssuer interface {
	Issue(actor authz.Actor) (authz.Token, error)
}

// OwnedDataCleaner removes data other bounded contexts keep for a user being deleted.
type OwnedDataCleaner interface {
	DeleteApplicationsOwnedBy(ctx context.Context, ownerID int64) error
}
