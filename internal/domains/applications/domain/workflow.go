package domain

import (
	"fmt"
	"strings"
	"time"
)

// Disposition is a reviewer's decision on a submitted application.
type Disposition string

const (
	DispositionApproved    Disposition = "approved"
	DispositionRejected    Disposition = "rejected"
	DispositionUnderReview Disposition = "under_review"
)

// ParseDisposition converts raw input into a Disposition.
func ParseDisposition(raw string) (Disposition, error) {
	switch d := Disposition(strings.ToLower(strings.TrimSpace(raw))); d {
	case DispositionApproved, DispositionRejected, DispositionUnderReview:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDisposition, raw)
	}
}

func (d Disposition) status() Status {
	switch d {
	case DispositionApproved:
		return StatusApproved
	case DispositionRejected:
		return StatusRejected
	default:
		return StatusUnderReview
	}
}

var transitions = map[Status][]Status{
	StatusDraft:            {StatusSubmitted},
	StatusSubmitted:        {StatusPendingDocuments, StatusApproved, StatusRejected, StatusUnderReview},
	StatusPending:          {StatusPendingDocuments, StatusApproved, StatusRejected, StatusUnderReview},
	StatusUnderReview:      {StatusPendingDocuments, StatusApproved, StatusRejected, StatusUnderReview},
	StatusPendingDocuments: {StatusPending},
	StatusApproved:         nil,
	StatusRejected:         nil,
}

// CanTransition reports whether the workflow allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (a *Application) transition(to Status, actorID int64, now time.Time) error {
	from := a.Status
	if !CanTransition(from, to) {
		return FieldError{
			Field:   "status",
			Message: fmt.Sprintf("cannot move from %s to %s", from, to),
			Err:     ErrInvalidTransition,
		}
	}
	a.Status = to
	a.record(ApplicationStatusChanged{
		BaseEvent:     BaseEvent{Timestamp: now},
		ApplicationID: a.ID,
		From:          from,
		To:            to,
		ActorID:       actorID,
	})
	return nil
}

// Submit moves a complete draft to submitted and stamps the submission date.
func (a *Application) Submit(actorID int64, now time.Time) error {
	if a.Status != StatusDraft {
		return a.transition(StatusSubmitted, actorID, now)
	}
	if missing := a.missingSections(); len(missing) > 0 {
		errs := make(ValidationErrors, 0, len(missing))
		for _, field := range missing {
			errs = append(errs, FieldError{Field: field, Message: "is required before submission", Err: ErrApplicationIncomplete})
		}
		return errs
	}
	if err := a.transition(StatusSubmitted, actorID, now); err != nil {
		return err
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	a.SubmittedDate = &day
	a.record(ApplicationSubmitted{BaseEvent: BaseEvent{Timestamp: now}, ApplicationID: a.ID, OwnerID: a.OwnerID})
	return nil
}

func (a *Application) missingSections() []string {
	var missing []string
	if a.Personal == nil {
		missing = append(missing, "personal_info")
	}
	if a.Vehicle == nil {
		missing = append(missing, "vehicle")
	}
	if a.Financial == nil {
		missing = append(missing, "financial_info")
	}
	if len(a.Addresses) == 0 {
		missing = append(missing, "addresses")
	}
	if !a.Terms.APR.Valid {
		missing = append(missing, "apr")
	}
	return missing
}

// RequestDocuments parks a reviewable application until documents arrive.
func (a *Application) RequestDocuments(actorID int64, now time.Time) error {
	return a.transition(StatusPendingDocuments, actorID, now)
}

// Decide applies a reviewer disposition. Approval needs a completed checklist.
func (a *Application) Decide(d Disposition, review *Review, actorID int64, now time.Time) error {
	if _, err := ParseDisposition(string(d)); err != nil {
		return fieldError("disposition", err)
	}
	if d == DispositionApproved && (review == nil || !review.AllComplete()) {
		return fieldError("review", ErrReviewIncomplete)
	}
	if err := a.transition(d.status(), actorID, now); err != nil {
		return err
	}
	if a.Status.IsTerminal() {
		id := actorID
		at := now.UTC()
		a.DecidedBy = &id
		a.DecidedAt = &at
	}
	return nil
}

// MarkReview sets one checklist flag. Marking documents complete releases an
// application waiting on documents back to pending. It reports whether the
// review was stamped and whether the application status changed.
func (a *Application) MarkReview(review *Review, d Dimension, value bool, actorID int64, now time.Time) (stamped, statusChanged bool, err error) {
	if review == nil || review.ApplicationID != a.ID {
		return false, false, fmt.Errorf("%w: review does not belong to application %d", ErrInvalidDimension, a.ID)
	}
	stamped, err = review.SetFlag(d, value, actorID, now)
	if err != nil {
		return false, false, err
	}
	if stamped {
		a.record(ReviewCompleted{BaseEvent: BaseEvent{Timestamp: now}, ApplicationID: a.ID, ReviewerID: actorID})
	}
	if d == DimensionDocuments && value && a.Status == StatusPendingDocuments {
		if err := a.transition(StatusPending, actorID, now); err != nil {
			return stamped, false, err
		}
		statusChanged = true
	}
	return stamped, statusChanged, nil
}
