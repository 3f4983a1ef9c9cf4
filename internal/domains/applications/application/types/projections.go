package types

import (
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/shared/projection"
)

// ApplicationProjection transports an application together with its persistence metadata.
type ApplicationProjection = projection.Projection[*domain.Application]

// ReviewProjection transports a review checklist together with its persistence metadata.
type ReviewProjection = projection.Projection[*domain.Review]

// NewApplicationProjection wraps an aggregate with persistence metadata.
func NewApplicationProjection(app *domain.Application, createdAt, updatedAt time.Time) *ApplicationProjection {
	if app == nil {
		return nil
	}
	return &ApplicationProjection{
		Entity:   app,
		Metadata: projection.Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// NewReviewProjection wraps a review with persistence metadata.
func NewReviewProjection(review *domain.Review, createdAt, updatedAt time.Time) *ReviewProjection {
	if review == nil {
		return nil
	}
	return &ReviewProjection{
		Entity:   review,
		Metadata: projection.Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// ApplicationPage is one page of a filtered application listing.
type ApplicationPage struct {
	Items   []*ApplicationProjection
	Page    int
	PerPage int
	Total   int64
}

// TotalPages reports how many pages the listing spans.
func (p ApplicationPage) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
