package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the review workflow state of an application.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusPending          Status = "pending"
	StatusUnderReview      Status = "under_review"
	StatusPendingDocuments Status = "pending_documents"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusSubmitted, StatusPending, StatusUnderReview,
		StatusPendingDocuments, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// IsTerminal reports whether no further transition is defined.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Reviewable reports whether a reviewer may decide or request documents.
func (s Status) Reviewable() bool {
	switch s {
	case StatusSubmitted, StatusPending, StatusUnderReview:
		return true
	default:
		return false
	}
}

// Progress tracks the multi-step form, independent of Status.
type Progress string

const (
	ProgressPersonal  Progress = "personal"
	ProgressVehicle   Progress = "vehicle"
	ProgressFinancial Progress = "financial"
	ProgressTerms     Progress = "terms"
)

// ParseProgress converts raw input into a Progress.
func ParseProgress(raw string) (Progress, error) {
	switch p := Progress(strings.ToLower(strings.TrimSpace(raw))); p {
	case ProgressPersonal, ProgressVehicle, ProgressFinancial, ProgressTerms:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProgress, raw)
	}
}

// AllowedTerms lists the loan terms offered, in months.
var AllowedTerms = []int{36, 48, 60, 72}

// IsAllowedTerm reports whether months is an offered term.
func IsAllowedTerm(months int) bool {
	for _, t := range AllowedTerms {
		if t == months {
			return true
		}
	}
	return false
}

var amountTolerance = decimal.RequireFromString("0.01")

// MaxAmount is the largest money value a stored amount can hold (12 digits, 2 of them cents).
var MaxAmount = decimal.RequireFromString("9999999999.99")

// exceedsMaxAmount reports whether d no longer fits once rounded to cents.
func exceedsMaxAmount(d decimal.Decimal) bool {
	return d.Round(2).GreaterThan(MaxAmount)
}

// LoanTerms are the financial fields of an application.
type LoanTerms struct {
	PurchasePrice decimal.Decimal
	DownPayment   decimal.Decimal
	LoanAmount    decimal.Decimal
	TermMonths    int
	APR           decimal.NullDecimal
}

// Validate checks the amount triple, term and APR range.
func (t LoanTerms) Validate() error {
	var errs ValidationErrors
	if !t.PurchasePrice.IsPositive() {
		errs = append(errs, fieldError("purchase_price", ErrPurchasePriceInvalid))
	}
	if !t.LoanAmount.IsPositive() {
		errs = append(errs, fieldError("loan_amount", ErrLoanAmountInvalid))
	} else if t.LoanAmount.GreaterThan(t.PurchasePrice) {
		errs = append(errs, fieldError("loan_amount", ErrLoanExceedsPrice))
	}
	if t.DownPayment.IsNegative() {
		errs = append(errs, fieldError("down_payment", ErrDownPaymentNegative))
	}
	if exceedsMaxAmount(t.PurchasePrice) {
		errs = append(errs, fieldError("purchase_price", ErrAmountTooLarge))
	}
	if exceedsMaxAmount(t.LoanAmount) {
		errs = append(errs, fieldError("loan_amount", ErrAmountTooLarge))
	}
	if exceedsMaxAmount(t.DownPayment) {
		errs = append(errs, fieldError("down_payment", ErrAmountTooLarge))
	}
	if t.DownPayment.Add(t.LoanAmount).Sub(t.PurchasePrice).Abs().GreaterThanOrEqual(amountTolerance) {
		errs = append(errs, fieldError("down_payment", ErrAmountMismatch))
	}
	if !IsAllowedTerm(t.TermMonths) {
		errs = append(errs, fieldError("term_months", ErrTermNotAllowed))
	}
	if t.APR.Valid && (t.APR.Decimal.IsNegative() || t.APR.Decimal.GreaterThanOrEqual(hundred)) {
		errs = append(errs, fieldError("apr", ErrAPROutOfRange))
	}
	return errs.orNil()
}

// Application is the aggregate root for one loan request.
type Application struct {
	ID             int64
	Number         ApplicationNumber
	OwnerID        int64
	Status         Status
	Progress       Progress
	Terms          LoanTerms
	MonthlyPayment decimal.NullDecimal
	SubmittedDate  *time.Time
	DecidedBy      *int64
	DecidedAt      *time.Time
	Personal       *PersonalInfo
	Vehicle        *Vehicle
	Financial      *FinancialInfo
	Addresses      []Address
	Documents      []Document

	events []Event
}

// NewApplication starts a draft application for owner with the given terms.
func NewApplication(ownerID int64, terms LoanTerms) (*Application, error) {
	app := &Application{
		OwnerID:  ownerID,
		Status:   StatusDraft,
		Progress: ProgressPersonal,
		Terms:    terms,
	}
	if err := app.Terms.Validate(); err != nil {
		return nil, err
	}
	app.recomputePayment()
	return app, nil
}

// AssignNumber sets the application number once.
func (a *Application) AssignNumber(number ApplicationNumber) error {
	if a.Number != "" {
		return ErrNumberAssigned
	}
	if _, _, _, err := ParseApplicationNumber(string(number)); err != nil {
		return err
	}
	a.Number = number
	return nil
}

// ReviseTerms replaces the financial fields and recomputes the payment.
func (a *Application) ReviseTerms(terms LoanTerms) error {
	if a.Status.IsTerminal() {
		return fieldError("status", ErrNotEditable)
	}
	if err := terms.Validate(); err != nil {
		return err
	}
	a.Terms = terms
	a.recomputePayment()
	return nil
}

// SetProgress records how far the applicant got through the form.
func (a *Application) SetProgress(p Progress) error {
	parsed, err := ParseProgress(string(p))
	if err != nil {
		return fieldError("application_progress", err)
	}
	a.Progress = parsed
	return nil
}

// SetPersonalInfo validates and attaches applicant details.
func (a *Application) SetPersonalInfo(info PersonalInfo, now time.Time) error {
	if err := info.Validate(now); err != nil {
		return err
	}
	a.Personal = &info
	return nil
}

// SetVehicle validates and attaches the vehicle.
func (a *Application) SetVehicle(v Vehicle, now time.Time) error {
	v.VIN = strings.ToUpper(strings.TrimSpace(v.VIN))
	if err := v.Validate(now); err != nil {
		return err
	}
	a.Vehicle = &v
	return nil
}

// SetFinancialInfo validates and attaches employment and credit details.
func (a *Application) SetFinancialInfo(info FinancialInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	a.Financial = &info
	return nil
}

// ReplaceAddresses validates and swaps the full address list.
func (a *Application) ReplaceAddresses(addresses []Address) error {
	var errs ValidationErrors
	for i := range addresses {
		addresses[i].State = strings.ToUpper(strings.TrimSpace(addresses[i].State))
		if err := addresses[i].Validate(fmt.Sprintf("addresses[%d]", i)); err != nil {
			if verrs, ok := AsValidationErrors(err); ok {
				errs = append(errs, verrs...)
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	a.Addresses = append([]Address(nil), addresses...)
	return nil
}

// AttachDocument records a stored document.
func (a *Application) AttachDocument(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	a.Documents = append(a.Documents, doc)
	return nil
}

// RemoveDocument drops the document with id and returns it.
func (a *Application) RemoveDocument(id int64) (Document, error) {
	for i, doc := range a.Documents {
		if doc.ID == id {
			a.Documents = append(a.Documents[:i:i], a.Documents[i+1:]...)
			return doc, nil
		}
	}
	return Document{}, ErrDocumentNotFound
}

// Jurisdiction returns the state of the first current address.
func (a *Application) Jurisdiction() (string, bool) {
	for _, addr := range a.Addresses {
		if addr.Type == AddressCurrent && addr.State != "" {
			return addr.State, true
		}
	}
	return "", false
}

// Validate re-applies every aggregate invariant before persistence.
func (a *Application) Validate(now time.Time) error {
	var errs ValidationErrors
	collect := func(err error) {
		if err == nil {
			return
		}
		if verrs, ok := AsValidationErrors(err); ok {
			errs = append(errs, verrs...)
			return
		}
		errs = append(errs, FieldError{Field: "application", Message: err.Error(), Err: err})
	}
	if _, err := ParseStatus(string(a.Status)); err != nil {
		collect(fieldError("status", err))
	}
	if _, err := ParseProgress(string(a.Progress)); err != nil {
		collect(fieldError("application_progress", err))
	}
	collect(a.Terms.Validate())
	if a.Personal != nil {
		collect(a.Personal.Validate(now))
	}
	if a.Vehicle != nil {
		collect(a.Vehicle.Validate(now))
	}
	if a.Financial != nil {
		collect(a.Financial.Validate())
	}
	for i, addr := range a.Addresses {
		collect(addr.Validate(fmt.Sprintf("addresses[%d]", i)))
	}
	return errs.orNil()
}

// Clone deep-copies the aggregate without pending events.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.events = nil
	if a.SubmittedDate != nil {
		d := *a.SubmittedDate
		c.SubmittedDate = &d
	}
	if a.DecidedBy != nil {
		v := *a.DecidedBy
		c.DecidedBy = &v
	}
	if a.DecidedAt != nil {
		v := *a.DecidedAt
		c.DecidedAt = &v
	}
	if a.Personal != nil {
		p := *a.Personal
		c.Personal = &p
	}
	if a.Vehicle != nil {
		v := *a.Vehicle
		c.Vehicle = &v
	}
	if a.Financial != nil {
		f := *a.Financial
		c.Financial = &f
	}
	c.Addresses = append([]Address(nil), a.Addresses...)
	c.Documents = append([]Document(nil), a.Documents...)
	return &c
}

// Events returns events recorded since the last ClearEvents.
func (a *Application) Events() []Event {
	return append([]Event(nil), a.events...)
}

// ClearEvents drops recorded events.
func (a *Application) ClearEvents() {
	a.events = nil
}

func (a *Application) record(e Event) {
	a.events = append(a.events, e)
}

func (a *Application) recomputePayment() {
	if !a.Terms.APR.Valid || !a.Terms.LoanAmount.IsPositive() || a.Terms.TermMonths == 0 {
		a.MonthlyPayment = decimal.NullDecimal{}
		return
	}
	payment, err := MonthlyPayment(a.Terms.LoanAmount, a.Terms.APR.Decimal, a.Terms.TermMonths)
	if err != nil {
		a.MonthlyPayment = decimal.NullDecimal{}
		return
	}
	a.MonthlyPayment = decimal.NewNullDecimal(payment)
}

var _ AggregateWithEvents = (*Application)(nil)
