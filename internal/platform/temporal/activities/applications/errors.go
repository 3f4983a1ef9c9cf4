package applications

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// Error types carried across the workflow boundary.
const (
	ErrorTypeInvalidInput    = "InvalidInput"
	ErrorTypeConflict        = "Conflict"
	ErrorTypeUnauthenticated = "Unauthenticated"
	ErrorTypeNotOwner        = "NotOwner"
	ErrorTypeForbidden       = "Forbidden"
)

// NonRetryableErrorTypes lists the rejections retrying cannot fix.
var NonRetryableErrorTypes = []string{
	ErrorTypeInvalidInput,
	ErrorTypeConflict,
	ErrorTypeUnauthenticated,
	ErrorTypeNotOwner,
	ErrorTypeForbidden,
}

var sentinels = map[string]error{
	ErrorTypeInvalidInput:    application.ErrInvalidInput,
	ErrorTypeConflict:        application.ErrConflict,
	ErrorTypeUnauthenticated: authz.ErrUnauthenticated,
	ErrorTypeNotOwner:        authz.ErrNotOwner,
	ErrorTypeForbidden:       authz.ErrForbidden,
}

// EncodeError converts rejections into non-retryable application errors and
// leaves infrastructure failures retryable.
func EncodeError(err error) error {
	errType := ""
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		errType = ErrorTypeInvalidInput
	case errors.Is(err, application.ErrConflict):
		errType = ErrorTypeConflict
	case errors.Is(err, authz.ErrUnauthenticated):
		errType = ErrorTypeUnauthenticated
	case errors.Is(err, authz.ErrNotOwner):
		errType = ErrorTypeNotOwner
	case errors.Is(err, authz.ErrForbidden):
		errType = ErrorTypeForbidden
	default:
		return err
	}
	var fields map[string]string
	if verrs, ok := domain.AsValidationErrors(err); ok {
		fields = verrs.Fields()
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, nil, fields)
}

// DecodeError maps a workflow failure back onto the sentinel errors callers match on.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	sentinel, ok := sentinels[appErr.Type()]
	if !ok {
		return err
	}
	var fields map[string]string
	if appErr.HasDetails() {
		_ = appErr.Details(&fields)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s", sentinel, appErr.Message())
	}
	verrs := make(domain.ValidationErrors, 0, len(fields))
	for field, msg := range fields {
		verrs = append(verrs, domain.FieldError{Field: field, Message: msg, Err: errors.New(msg)})
	}
	return fmt.Errorf("%w: %w", sentinel, verrs)
}
