package mapper

import (
	"errors"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// MapError translates applications errors into Problem Details.
func MapError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(ports.ErrNotFound.Error()), true
	case errors.Is(err, domain.ErrDocumentNotFound):
		return apierrors.ErrNotFound.WithDetail(domain.ErrDocumentNotFound.Error()), true
	case errors.Is(err, application.ErrConflict):
		return apierrors.ErrConflict.WithDetail(conflictDetail(err)), true
	case errors.Is(err, application.ErrInvalidInput):
		return validationProblem(err), true
	}
	if _, ok := domain.AsValidationErrors(err); ok {
		return validationProblem(err), true
	}
	return apierrors.ProblemDetail{}, false
}

func validationProblem(err error) apierrors.ProblemDetail {
	verrs, ok := domain.AsValidationErrors(err)
	if !ok {
		return apierrors.NewValidationProblem(err.Error(), nil)
	}
	return apierrors.NewValidationProblem("request failed validation", verrs.Fields())
}

func conflictDetail(err error) string {
	switch {
	case errors.Is(err, ports.ErrDuplicateVIN):
		return ports.ErrDuplicateVIN.Error()
	case errors.Is(err, ports.ErrDuplicateNumber):
		return "application number could not be allocated, retry the request"
	default:
		return application.ErrConflict.Error()
	}
}
