package ports

import (
	"context"
	"errors"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

var (
	ErrNotFound        = errors.New("application not found")
	ErrDuplicateNumber = errors.New("application number already exists")
	ErrDuplicateVIN    = errors.New("vehicle vin already registered")
)

// NumberSource exposes what the number generator needs from storage.
type NumberSource interface {
	// LockNumberPrefix serializes number allocation for prefix until the
	// surrounding transaction ends.
	LockNumberPrefix(ctx context.Context, prefix string) error
	// LatestNumber returns the highest number with prefix, or "" when none exist.
	LatestNumber(ctx context.Context, prefix string) (domain.ApplicationNumber, error)
}

// Repository persists applications, their children and their reviews.
type Repository interface {
	NumberSource
	// Transaction runs fn in one unit of work. Any error rolls everything back.
	Transaction(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Insert(ctx context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error)
	Update(ctx context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error)
	GetByID(ctx context.Context, id int64) (*apptypes.ApplicationProjection, error)
	List(ctx context.Context, filter apptypes.ApplicationFilter) (*apptypes.ApplicationPage, error)
	// Delete removes the application with every owned child and its review.
	Delete(ctx context.Context, id int64) error
	// DeleteByOwner removes every application of owner and returns the removed aggregates.
	DeleteByOwner(ctx context.Context, ownerID int64) ([]*domain.Application, error)
	GetOrCreateReview(ctx context.Context, applicationID int64) (*apptypes.ReviewProjection, error)
	SaveReview(ctx context.Context, review *domain.Review) (*apptypes.ReviewProjection, error)
}
