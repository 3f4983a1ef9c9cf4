package types

import (
	"fmt"
	"strings"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SortField is a column the listing may be ordered by.
type SortField string

const (
	SortCreatedAt     SortField = "created_at"
	SortUpdatedAt     SortField = "updated_at"
	SortSubmittedDate SortField = "submitted_date"
	SortLoanAmount    SortField = "loan_amount"
	SortNumber        SortField = "application_number"
)

// ParseSortField converts raw input into a SortField, defaulting to created_at.
func ParseSortField(raw string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return SortCreatedAt, nil
	case SortCreatedAt, SortUpdatedAt, SortSubmittedDate, SortLoanAmount, SortNumber:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported sort field %q", raw)
	}
}

// ListApplicationsQuery is the raw listing request from a caller.
type ListApplicationsQuery struct {
	Statuses     []string
	Progress     string
	OwnerID      *int64
	NumberPrefix string
	SortBy       string
	Descending   bool
	Page         int
	PerPage      int
}

// ApplicationFilter is the parsed listing request handed to repositories.
type ApplicationFilter struct {
	Statuses     []domain.Status
	Progress     domain.Progress
	OwnerID      *int64
	NumberPrefix string
	SortBy       SortField
	Descending   bool
	Page         int
	PerPage      int
}

// Offset returns the row offset of the requested page.
func (f ApplicationFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}
