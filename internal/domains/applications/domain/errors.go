package domain

import (
	"errors"
	"strings"
)

var (
	ErrPurchasePriceInvalid  = errors.New("purchase price must be greater than zero")
	ErrLoanAmountInvalid     = errors.New("loan amount must be greater than zero")
	ErrLoanExceedsPrice      = errors.New("loan amount cannot exceed purchase price")
	ErrDownPaymentNegative   = errors.New("down payment cannot be negative")
	ErrAmountMismatch        = errors.New("down payment plus loan amount must equal purchase price")
	ErrTermNotAllowed        = errors.New("term must be 36, 48, 60 or 72 months")
	ErrAPROutOfRange         = errors.New("apr must be at least 0 and below 100")
	ErrInvalidStatus         = errors.New("invalid application status")
	ErrInvalidProgress       = errors.New("invalid application progress")
	ErrInvalidDimension      = errors.New("invalid review dimension")
	ErrInvalidDisposition    = errors.New("invalid disposition")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrReviewIncomplete      = errors.New("all review checks must be complete before approval")
	ErrApplicationIncomplete = errors.New("application is missing required sections")
	ErrNotEditable           = errors.New("application can no longer be edited")
	ErrInvalidNumber         = errors.New("invalid application number")
	ErrInvalidJurisdiction   = errors.New("jurisdiction must be a two-letter code")
	ErrNumberAssigned        = errors.New("application number already assigned")
	ErrSequenceExhausted     = errors.New("application number sequence exhausted")
	ErrInvalidFormat         = errors.New("invalid format")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrInvalidDocument       = errors.New("invalid document")
	ErrApplicantUnderage     = errors.New("applicant must be at least 18 years old")
	ErrInvalidVehicleYear    = errors.New("vehicle year out of range")
	ErrInvalidEnumValue      = errors.New("value not allowed")
	ErrIncomeInvalid         = errors.New("annual income must be greater than zero")
	ErrExpensesNegative      = errors.New("monthly expenses cannot be negative")
	ErrAmountTooLarge        = errors.New("amount cannot exceed 9999999999.99")
)

// FieldError ties a rule violation to the field that caused it.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error { return e.Err }

func fieldError(field string, err error) FieldError {
	return FieldError{Field: field, Message: err.Error(), Err: err}
}

// ValidationErrors aggregates every field violation found during validation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual sentinels to errors.Is.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, fe := range v {
		errs = append(errs, fe)
	}
	return errs
}

// Fields flattens the violations into field -> message, first message wins.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, fe := range v {
		if _, ok := fields[fe.Field]; !ok {
			fields[fe.Field] = fe.Message
		}
	}
	return fields
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// AsValidationErrors extracts field violations from err when present.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	var fe FieldError
	if errors.As(err, &fe) {
		return ValidationErrors{fe}, true
	}
	return nil, false
}
