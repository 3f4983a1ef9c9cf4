package types

import (
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/shared/projection"
)

// UserProjection transports a user together with persistence metadata.
type UserProjection = projection.Projection[*domain.User]

// NewUserProjection wraps a user with persistence metadata.
func NewUserProjection(user *domain.User, createdAt, updatedAt time.Time) *UserProjection {
	if user == nil {
		return nil
	}
	return &UserProjection{
		Entity:   user,
		Metadata: projection.Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// RegisterInput carries a customer sign-up.
type RegisterInput struct {
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
	Password    string
}

// Credentials identify a user logging in.
type Credentials struct {
	Email    string
	Password string
}

// UserIdentifier addresses a single user.
type UserIdentifier struct {
	ID int64
}

// AssignRoleInput elevates or demotes a user.
type AssignRoleInput struct {
	ID   int64
	Role string
}
