package domain

import (
	"fmt"
	"strings"
	"time"
)

// Dimension names one of the five completeness checks.
type Dimension string

const (
	DimensionPersonalInfo          Dimension = "personal_info_complete"
	DimensionVehicleInfo           Dimension = "vehicle_info_complete"
	DimensionFinancialInfo         Dimension = "financial_info_complete"
	DimensionDocuments             Dimension = "documents_complete"
	DimensionCreditCheckAuthorized Dimension = "credit_check_authorized"
)

// Dimensions lists every completeness check in display order.
var Dimensions = []Dimension{
	DimensionPersonalInfo,
	DimensionVehicleInfo,
	DimensionFinancialInfo,
	DimensionDocuments,
	DimensionCreditCheckAuthorized,
}

// ParseDimension converts raw input into a Dimension.
func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case DimensionPersonalInfo, DimensionVehicleInfo, DimensionFinancialInfo,
		DimensionDocuments, DimensionCreditCheckAuthorized:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDimension, raw)
	}
}

// Review is the per-application reviewer checklist.
type Review struct {
	ID                    int64
	ApplicationID         int64
	PersonalInfoComplete  bool
	VehicleInfoComplete   bool
	FinancialInfoComplete bool
	DocumentsComplete     bool
	CreditCheckAuthorized bool
	ReviewedBy            *int64
	ReviewCompletedAt     *time.Time
	Notes                 string
}

// NewReview returns the default checklist for an application.
func NewReview(applicationID int64) *Review {
	return &Review{ApplicationID: applicationID}
}

// Flag reads one dimension.
func (r *Review) Flag(d Dimension) bool {
	switch d {
	case DimensionPersonalInfo:
		return r.PersonalInfoComplete
	case DimensionVehicleInfo:
		return r.VehicleInfoComplete
	case DimensionFinancialInfo:
		return r.FinancialInfoComplete
	case DimensionDocuments:
		return r.DocumentsComplete
	case DimensionCreditCheckAuthorized:
		return r.CreditCheckAuthorized
	default:
		return false
	}
}

// AllComplete reports whether all five checks are set.
func (r *Review) AllComplete() bool {
	for _, d := range Dimensions {
		if !r.Flag(d) {
			return false
		}
	}
	return true
}

// Completed reports whether the review has been stamped.
func (r *Review) Completed() bool {
	return r.ReviewCompletedAt != nil
}

// Missing lists the dimensions still unset.
func (r *Review) Missing() []Dimension {
	var missing []Dimension
	for _, d := range Dimensions {
		if !r.Flag(d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// SetFlag changes one dimension and stamps the reviewer when all five are set
// for the first time. It reports whether this call stamped the review.
// A stamp is never cleared.
func (r *Review) SetFlag(d Dimension, value bool, reviewerID int64, now time.Time) (bool, error) {
	switch d {
	case DimensionPersonalInfo:
		r.PersonalInfoComplete = value
	case DimensionVehicleInfo:
		r.VehicleInfoComplete = value
	case DimensionFinancialInfo:
		r.FinancialInfoComplete = value
	case DimensionDocuments:
		r.DocumentsComplete = value
	case DimensionCreditCheckAuthorized:
		r.CreditCheckAuthorized = value
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidDimension, d)
	}
	return r.evaluateCompletion(reviewerID, now), nil
}

func (r *Review) evaluateCompletion(reviewerID int64, now time.Time) bool {
	if r.Completed() || !r.AllComplete() {
		return false
	}
	id := reviewerID
	at := now.UTC()
	r.ReviewedBy = &id
	r.ReviewCompletedAt = &at
	return true
}

// SetNotes replaces the reviewer notes.
func (r *Review) SetNotes(notes string) {
	r.Notes = strings.TrimSpace(notes)
}

// AppendNote adds a line to the reviewer notes.
func (r *Review) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes += "\n" + note
}

// Clone copies the review including stamp pointers.
func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	if r.ReviewedBy != nil {
		v := *r.ReviewedBy
		c.ReviewedBy = &v
	}
	if r.ReviewCompletedAt != nil {
		v := *r.ReviewCompletedAt
		c.ReviewCompletedAt = &v
	}
	return &c
}
