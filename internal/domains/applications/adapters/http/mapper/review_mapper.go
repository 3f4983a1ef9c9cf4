package mapper

import (
	"time"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
)

// Review is the HTTP representation of the reviewer checklist.
type Review struct {
	ID                    int64      `json:"id"`
	ApplicationID         int64      `json:"application_id"`
	PersonalInfoComplete  bool       `json:"personal_info_complete"`
	VehicleInfoComplete   bool       `json:"vehicle_info_complete"`
	FinancialInfoComplete bool       `json:"financial_info_complete"`
	DocumentsComplete     bool       `json:"documents_complete"`
	CreditCheckAuthorized bool       `json:"credit_check_authorized"`
	Complete              bool       `json:"complete"`
	ReviewedBy            *int64     `json:"reviewed_by"`
	ReviewCompletedAt     *time.Time `json:"review_completed_at"`
	Notes                 string     `json:"notes"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// SetCompleteness toggles a single checklist dimension.
type SetCompleteness struct {
	Dimension string `json:"dimension" binding:"required"`
	Value     *bool  `json:"value" binding:"required"`
}

// Notes carries free-text reviewer notes.
type Notes struct {
	Notes string `json:"notes"`
}

// Decision carries a reviewer disposition.
type Decision struct {
	Disposition string `json:"disposition" binding:"required"`
	Notes       string `json:"notes"`
}

// FromReviewProjection maps a review projection into the transport representation.
func FromReviewProjection(projection *apptypes.ReviewProjection) Review {
	r := projection.Entity
	return Review{
		ID:                    r.ID,
		ApplicationID:         r.ApplicationID,
		PersonalInfoComplete:  r.PersonalInfoComplete,
		VehicleInfoComplete:   r.VehicleInfoComplete,
		FinancialInfoComplete: r.FinancialInfoComplete,
		DocumentsComplete:     r.DocumentsComplete,
		CreditCheckAuthorized: r.CreditCheckAuthorized,
		Complete:              r.AllComplete(),
		ReviewedBy:            r.ReviewedBy,
		ReviewCompletedAt:     r.ReviewCompletedAt,
		Notes:                 r.Notes,
		UpdatedAt:             projection.Metadata.UpdatedAt,
	}
}

// ToCompletenessInput converts the toggle payload for the application id.
func ToCompletenessInput(id int64, model SetCompleteness) apptypes.SetReviewCompletenessInput {
	value := false
	if model.Value != nil {
		value = *model.Value
	}
	return apptypes.SetReviewCompletenessInput{ApplicationID: id, Dimension: model.Dimension, Value: value}
}
