package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid application input")
	// ErrConflict signals a uniqueness clash that retrying will not fix.
	ErrConflict = errors.New("application conflict")
)

var ruleErrors = []error{
	domain.ErrInvalidStatus,
	domain.ErrInvalidProgress,
	domain.ErrInvalidDimension,
	domain.ErrInvalidDisposition,
	domain.ErrInvalidTransition,
	domain.ErrReviewIncomplete,
	domain.ErrApplicationIncomplete,
	domain.ErrNotEditable,
	domain.ErrInvalidJurisdiction,
	domain.ErrInvalidDocument,
	domain.ErrInvalidNumber,
	domain.ErrSequenceExhausted,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) {
		return err
	}
	if _, ok := domain.AsValidationErrors(err); ok {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, rule := range ruleErrors {
		if errors.Is(err, rule) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	if errors.Is(err, ports.ErrDuplicateNumber) || errors.Is(err, ports.ErrDuplicateVIN) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
