package authz

import "fmt"

// AuthorizeListUsers allows reviewers to enumerate accounts.
func AuthorizeListUsers(actor Actor) error {
	return RequireReviewer(actor)
}

// AuthorizeViewUser allows users to see themselves and reviewers to see anyone.
func AuthorizeViewUser(actor Actor, targetID int64) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID == targetID || actor.Role.IsReviewer() {
		return nil
	}
	return fmt.Errorf("%w: cannot view another user", ErrForbidden)
}

// AuthorizeDeleteUser lets reviewers remove customers or their own account.
// Customers cannot delete accounts and no one removes another reviewer.
func AuthorizeDeleteUser(actor Actor, targetID int64, targetRole Role) error {
	if err := RequireReviewer(actor); err != nil {
		return err
	}
	if actor.ID == targetID {
		return nil
	}
	if targetRole.IsReviewer() {
		return fmt.Errorf("%w: cannot delete another reviewer", ErrForbidden)
	}
	return nil
}
