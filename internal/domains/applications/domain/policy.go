package domain

import (
	"fmt"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// Action names an operation on an application.
type Action string

const (
	ActionCreate           Action = "create"
	ActionView             Action = "view"
	ActionUpdate           Action = "update"
	ActionSubmit           Action = "submit"
	ActionDelete           Action = "delete"
	ActionReview           Action = "review"
	ActionRequestDocuments Action = "request_documents"
	ActionDecide           Action = "decide"
	ActionManageDocuments  Action = "manage_documents"
)

// Authorize decides whether actor may perform action on app.
// Ownership failures return authz.ErrNotOwner, role and state failures authz.ErrForbidden.
func Authorize(actor authz.Actor, action Action, app *Application) error {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return err
	}
	switch action {
	case ActionCreate:
		if app != nil && app.OwnerID != actor.ID {
			return fmt.Errorf("%w: applications are created for the acting user", authz.ErrForbidden)
		}
		return nil
	case ActionReview, ActionRequestDocuments, ActionDecide:
		return authz.RequireReviewer(actor)
	}
	if app == nil {
		return fmt.Errorf("%w: no application", authz.ErrForbidden)
	}
	// Submission belongs to the applicant alone; reviewers act on everything else.
	if actor.Role.IsReviewer() && action != ActionSubmit {
		return nil
	}
	if app.OwnerID != actor.ID {
		if actor.Role.IsReviewer() {
			return fmt.Errorf("%w: only the applicant can submit an application", authz.ErrForbidden)
		}
		return authz.ErrNotOwner
	}
	switch action {
	case ActionView:
		return nil
	case ActionUpdate, ActionSubmit, ActionDelete:
		if app.Status != StatusDraft {
			return fmt.Errorf("%w: cannot %s an application in status %s", authz.ErrForbidden, action, app.Status)
		}
		return nil
	case ActionManageDocuments:
		if app.Status != StatusDraft && app.Status != StatusPendingDocuments {
			return fmt.Errorf("%w: documents cannot change in status %s", authz.ErrForbidden, app.Status)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", authz.ErrForbidden, action)
	}
}

// CanAct is the boolean form of Authorize.
func CanAct(actor authz.Actor, action Action, app *Application) bool {
	return Authorize(actor, action, app) == nil
}
