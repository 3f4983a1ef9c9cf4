package mapper

import (
	"errors"
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// Registration is the inbound sign-up payload.
type Registration struct {
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password" binding:"required"`
}

// Credentials is the inbound login payload.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// User represents the transport-level user payload. Password hashes never leave the service.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Token is the issued bearer credential.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ToRegisterInput converts the sign-up payload.
func ToRegisterInput(model Registration) usertypes.RegisterInput {
	return usertypes.RegisterInput{
		Email:       model.Email,
		PhoneNumber: model.PhoneNumber,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		Password:    model.Password,
	}
}

// ToCredentials converts the login payload.
func ToCredentials(model Credentials) usertypes.Credentials {
	return usertypes.Credentials{Email: model.Email, Password: model.Password}
}

// FromProjection converts a user projection into its transport representation.
func FromProjection(projection *usertypes.UserProjection) User {
	if projection == nil || projection.Entity == nil {
		return User{}
	}
	user := projection.Entity
	return User{
		ID:          user.ID,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        string(user.Role),
		CreatedAt:   projection.Metadata.CreatedAt,
	}
}

// FromProjections converts a slice of user projections.
func FromProjections(list []*usertypes.UserProjection) []User {
	result := make([]User, 0, len(list))
	for _, projection := range list {
		result = append(result, FromProjection(projection))
	}
	return result
}

// FromToken converts an issued token.
func FromToken(token *authz.Token) Token {
	return Token{AccessToken: token.Value, TokenType: "Bearer", ExpiresAt: token.ExpiresAt}
}

// MapError translates users errors into Problem Details.
func MapError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(ports.ErrNotFound.Error()), true
	case errors.Is(err, application.ErrAuthentication):
		return apierrors.ErrUnauthorized.WithDetail(application.ErrInvalidCredentials.Error()), true
	case errors.Is(err, ports.ErrDuplicateEmail):
		return apierrors.ErrConflict.WithDetail(ports.ErrDuplicateEmail.Error()), true
	case errors.Is(err, ports.ErrDuplicatePhone):
		return apierrors.ErrConflict.WithDetail(ports.ErrDuplicatePhone.Error()), true
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.NewValidationProblem("request failed validation", domain.FieldErrors(err)), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
