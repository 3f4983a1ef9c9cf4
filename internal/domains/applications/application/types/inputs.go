package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

// CreateApplicationInput carries the terms and any form sections filled in up front.
type CreateApplicationInput struct {
	Terms     domain.LoanTerms
	Progress  string
	Personal  *domain.PersonalInfo
	Vehicle   *domain.Vehicle
	Financial *domain.FinancialInfo
	Addresses []domain.Address
	// IdempotencyKey deduplicates retried submissions of the same create request.
	IdempotencyKey string
}

// UpdateApplicationInput carries a partial update; nil fields are left unchanged.
type UpdateApplicationInput struct {
	ID            int64
	PurchasePrice *decimal.Decimal
	DownPayment   *decimal.Decimal
	LoanAmount    *decimal.Decimal
	TermMonths    *int
	APR           *decimal.Decimal
	Progress      *string
	Personal      *domain.PersonalInfo
	Vehicle       *domain.Vehicle
	Financial     *domain.FinancialInfo
	Addresses     *[]domain.Address
}

// HasTermChanges reports whether any financial field is part of the update.
func (in UpdateApplicationInput) HasTermChanges() bool {
	return in.PurchasePrice != nil || in.DownPayment != nil || in.LoanAmount != nil ||
		in.TermMonths != nil || in.APR != nil
}

// ApplicationIdentifier addresses a single application.
type ApplicationIdentifier struct {
	ID int64
}

// SetReviewCompletenessInput sets one checklist dimension.
type SetReviewCompletenessInput struct {
	ApplicationID int64
	Dimension     string
	Value         bool
}

// SetReviewNotesInput replaces the reviewer notes.
type SetReviewNotesInput struct {
	ApplicationID int64
	Notes         string
}

// RequestDocumentsInput asks the applicant for more documents.
type RequestDocumentsInput struct {
	ApplicationID int64
	Notes         string
}

// DecideApplicationInput records a reviewer disposition.
type DecideApplicationInput struct {
	ApplicationID int64
	Disposition   string
	Notes         string
}

// AttachDocumentInput uploads a file and records it on the application.
type AttachDocumentInput struct {
	ApplicationID int64
	Name          string
	Description   string
	ContentType   string
	Data          []byte
}

// RemoveDocumentInput detaches a document and deletes its blob.
type RemoveDocumentInput struct {
	ApplicationID int64
	DocumentID    int64
}
