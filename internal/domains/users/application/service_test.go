package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/memory"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var testNow = time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

type fakeIssuer struct {
	issued int
}

func (f *fakeIssuer) Issue(actor authz.Actor) (authz.Token, error) {
	f.issued++
	return authz.Token{
		Value:     fmt.Sprintf("token-%d-%s", actor.ID, actor.Role),
		ID:        fmt.Sprintf("jti-%d", f.issued),
		ExpiresAt: testNow.Add(time.Hour),
	}, nil
}

type recordingCleaner struct {
	owners []int64
	err    error
}

func (r *recordingCleaner) DeleteApplicationsOwnedBy(_ context.Context, ownerID int64) error {
	r.owners = append(r.owners, ownerID)
	return r.err
}

// failingDeleteRepository accepts everything except account removal.
type failingDeleteRepository struct {
	*memory.Repository
	err error
}

func (r failingDeleteRepository) Delete(context.Context, int64) error {
	return r.err
}

type fixture struct {
	repo     *memory.Repository
	sessions *memory.SessionStore
	cleaner  *recordingCleaner
	svc      *Service
}

func newFixture() fixture {
	f := fixture{
		repo:     memory.NewRepository(),
		sessions: memory.NewSessionStore(),
		cleaner:  &recordingCleaner{},
	}
	f.svc = NewService(f.repo, &fakeIssuer{},
		WithSessionStore(f.sessions),
		WithOwnedDataCleaner(f.cleaner),
		WithPasswordCost(bcrypt.MinCost),
		WithClock(func() time.Time { return testNow }),
	)
	return f
}

func registration(n int) usertypes.RegisterInput {
	return usertypes.RegisterInput{
		Email:       fmt.Sprintf("user%d@example.com", n),
		PhoneNumber: fmt.Sprintf("+1555000%04d", n),
		FirstName:   "Test",
		LastName:    fmt.Sprintf("User%d", n),
		Password:    "correct horse battery",
	}
}

func (f fixture) register(t *testing.T, n int, role authz.Role) authz.Actor {
	t.Helper()
	ctx := context.Background()
	created, err := f.svc.Register(ctx, registration(n))
	require.NoError(t, err)
	if role != authz.RoleCustomer {
		_, err = f.svc.AssignRole(ctx, usertypes.AssignRoleInput{ID: created.Entity.ID, Role: string(role)})
		require.NoError(t, err)
	}
	return authz.Actor{ID: created.Entity.ID, Role: role}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Register(context.Background(), registration(1))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Entity.ID)
	require.Equal(t, authz.RoleCustomer, created.Entity.Role)
	require.NotEqual(t, "correct horse battery", created.Entity.PasswordHash)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	input := registration(1)
	input.Email = "nope"
	_, err := f.svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registration(1))
	require.NoError(t, err)

	sameEmail := registration(2)
	sameEmail.Email = "USER1@example.com"
	_, err = f.svc.Register(ctx, sameEmail)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrDuplicateEmail)

	samePhone := registration(3)
	samePhone.PhoneNumber = registration(1).PhoneNumber
	_, err = f.svc.Register(ctx, samePhone)
	require.ErrorIs(t, err, ports.ErrDuplicatePhone)
}

func TestAuthenticateIssuesTrackedToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	actor := f.register(t, 1, authz.RoleCustomer)

	token, err := f.svc.Authenticate(ctx, usertypes.Credentials{Email: " User1@Example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	require.Equal(t, "token-1-customer", token.Value)

	active, err := f.svc.SessionActive(ctx, token.ID)
	require.NoError(t, err)
	require.True(t, active)

	require.NoError(t, f.svc.Logout(ctx, actor, token.ID))
	active, err = f.svc.SessionActive(ctx, token.ID)
	require.NoError(t, err)
	require.False(t, active)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register(t, 1, authz.RoleCustomer)

	_, err := f.svc.Authenticate(ctx, usertypes.Credentials{Email: "user1@example.com", Password: "wrong password"})
	require.ErrorIs(t, err, ErrAuthentication)

	_, err = f.svc.Authenticate(ctx, usertypes.Credentials{Email: "ghost@example.com", Password: "correct horse battery"})
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestUserAccessRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customer := f.register(t, 1, authz.RoleCustomer)
	other := f.register(t, 2, authz.RoleCustomer)
	officer := f.register(t, 3, authz.RoleLoanOfficer)

	_, err := f.svc.List(ctx, customer)
	require.ErrorIs(t, err, authz.ErrForbidden)
	users, err := f.svc.List(ctx, officer)
	require.NoError(t, err)
	require.Len(t, users, 3)

	_, err = f.svc.Get(ctx, customer, usertypes.UserIdentifier{ID: other.ID})
	require.ErrorIs(t, err, authz.ErrForbidden)
	self, err := f.svc.Get(ctx, customer, usertypes.UserIdentifier{ID: customer.ID})
	require.NoError(t, err)
	require.Equal(t, customer.ID, self.Entity.ID)
	_, err = f.svc.Get(ctx, officer, usertypes.UserIdentifier{ID: 404})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customer := f.register(t, 1, authz.RoleCustomer)
	officer := f.register(t, 2, authz.RoleLoanOfficer)
	token, err := f.svc.Authenticate(ctx, usertypes.Credentials{Email: "user1@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(ctx, customer, usertypes.UserIdentifier{ID: officer.ID}), authz.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, officer, usertypes.UserIdentifier{ID: customer.ID}))
	require.Equal(t, []int64{customer.ID}, f.cleaner.owners)
	_, err = f.repo.GetByID(ctx, customer.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	active, err := f.svc.SessionActive(ctx, token.ID)
	require.NoError(t, err)
	require.False(t, active)
}

func TestDeleteUserKeepsApplicationsWhenAccountRemovalFails(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	cleaner := &recordingCleaner{}
	repo := failingDeleteRepository{Repository: memory.NewRepository(), err: storeErr}
	svc := NewService(repo, &fakeIssuer{}, WithOwnedDataCleaner(cleaner), WithPasswordCost(bcrypt.MinCost))

	created, err := svc.Register(ctx, registration(1))
	require.NoError(t, err)
	officer := authz.Actor{ID: 99, Role: authz.RoleLoanOfficer}

	err = svc.Delete(ctx, officer, usertypes.UserIdentifier{ID: created.Entity.ID})
	require.ErrorIs(t, err, storeErr)
	require.Empty(t, cleaner.owners)
	_, err = repo.GetByID(ctx, created.Entity.ID)
	require.NoError(t, err)
}

func TestDeleteUserSucceedsWhenCleanupFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customer := f.register(t, 1, authz.RoleCustomer)
	officer := f.register(t, 2, authz.RoleLoanOfficer)
	f.cleaner.err = errors.New("applications store unavailable")

	require.NoError(t, f.svc.Delete(ctx, officer, usertypes.UserIdentifier{ID: customer.ID}))
	require.Equal(t, []int64{customer.ID}, f.cleaner.owners)
	_, err := f.repo.GetByID(ctx, customer.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestReviewerCannotDeleteAnotherReviewer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	officer := f.register(t, 1, authz.RoleLoanOfficer)
	underwriter := f.register(t, 2, authz.RoleUnderwriter)

	require.ErrorIs(t, f.svc.Delete(ctx, officer, usertypes.UserIdentifier{ID: underwriter.ID}), authz.ErrForbidden)
	require.Empty(t, f.cleaner.owners)
	require.NoError(t, f.svc.Delete(ctx, underwriter, usertypes.UserIdentifier{ID: underwriter.ID}))
}

func TestAssignRoleValidatesRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customer := f.register(t, 1, authz.RoleCustomer)

	_, err := f.svc.AssignRole(ctx, usertypes.AssignRoleInput{ID: customer.ID, Role: "admin"})
	require.ErrorIs(t, err, ErrInvalidInput)

	updated, err := f.svc.AssignRole(ctx, usertypes.AssignRoleInput{ID: customer.ID, Role: "Underwriter"})
	require.NoError(t, err)
	require.Equal(t, authz.RoleUnderwriter, updated.Entity.Role)

	_, err = f.svc.AssignRole(ctx, usertypes.AssignRoleInput{ID: 99, Role: "underwriter"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}
