package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// ApplicationCreated is raised once a numbered draft is stored.
type ApplicationCreated struct {
	BaseEvent
	ApplicationID int64
	Number        ApplicationNumber
	OwnerID       int64
}

func (e ApplicationCreated) EventName() string { return "applications.application.created" }

// ApplicationSubmitted is raised when the owner submits a draft.
type ApplicationSubmitted struct {
	BaseEvent
	ApplicationID int64
	OwnerID       int64
}

func (e ApplicationSubmitted) EventName() string { return "applications.application.submitted" }

// ApplicationStatusChanged is raised on every workflow transition.
type ApplicationStatusChanged struct {
	BaseEvent
	ApplicationID int64
	From          Status
	To            Status
	ActorID       int64
}

func (e ApplicationStatusChanged) EventName() string {
	return "applications.application.status_changed"
}

// ReviewCompleted is raised when the fifth completeness check is set.
type ReviewCompleted struct {
	BaseEvent
	ApplicationID int64
	ReviewerID    int64
}

func (e ReviewCompleted) EventName() string { return "applications.review.completed" }

// ApplicationDeleted is raised after an application and its children are removed.
type ApplicationDeleted struct {
	BaseEvent
	ApplicationID int64
	Number        ApplicationNumber
	ActorID       int64
}

func (e ApplicationDeleted) EventName() string { return "applications.application.deleted" }

// AggregateWithEvents is implemented by aggregates that track domain events.
type AggregateWithEvents interface {
	Events() []Event
	ClearEvents()
}
