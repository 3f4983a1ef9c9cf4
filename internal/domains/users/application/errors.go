package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrAuthentication wraps authentication failures.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConflict signals the email or phone number is already taken.
	ErrConflict = errors.New("user conflict")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrLongPassword),
		errors.Is(err, domain.ErrPasswordEmpty),
		errors.Is(err, authz.ErrInvalidRole):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrDuplicateEmail), errors.Is(err, ports.ErrDuplicatePhone):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, ErrInvalidCredentials):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return err
}
