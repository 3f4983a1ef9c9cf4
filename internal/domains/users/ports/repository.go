package ports

import (
	"context"
	"errors"

	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicatePhone = errors.New("phone number already registered")
)

// Repository persists user accounts.
type Repository interface {
	Insert(ctx context.Context, user *domain.User) (*usertypes.UserProjection, error)
	GetByID(ctx context.Context, id int64) (*usertypes.UserProjection, error)
	GetByEmail(ctx context.Context, email string) (*usertypes.UserProjection, error)
	List(ctx context.Context) ([]*usertypes.UserProjection, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role) (*usertypes.UserProjection, error)
	Delete(ctx context.Context, id int64) error
}
