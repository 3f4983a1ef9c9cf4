package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

func TestNewCustomerHashesPassword(t *testing.T) {
	u, err := NewCustomer(" Ada@Example.com ", "+15551234567", "Ada", "Lovelace", "correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.Equal(t, authz.RoleCustomer, u.Role)
	require.NotEqual(t, "correct horse", u.PasswordHash)
	require.True(t, u.CheckPassword("correct horse"))
	require.False(t, u.CheckPassword("wrong horse"))
	require.Equal(t, "Ada Lovelace", u.FullName())
}

func TestNewCustomerCollectsFieldErrors(t *testing.T) {
	_, err := NewCustomer("not-an-email", "12", "", "Lovelace", "short", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrInvalidEmail)
	require.ErrorIs(t, err, ErrWeakPassword)
	require.Equal(t, map[string]string{
		"email":        ErrInvalidEmail.Error(),
		"phone_number": ErrInvalidPhone.Error(),
		"first_name":   ErrNameRequired.Error(),
		"password":     ErrWeakPassword.Error(),
	}, FieldErrors(err))
}

func TestFieldErrorsFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("register: %w", errors.Join(FieldError{Field: "email", Err: ErrInvalidEmail}))
	require.Equal(t, map[string]string{"email": ErrInvalidEmail.Error()}, FieldErrors(err))
	require.Empty(t, FieldErrors(errors.New("plain")))
}

func TestAssignRoleChangesActor(t *testing.T) {
	u := &User{ID: 4, Role: authz.RoleCustomer}
	u.AssignRole(authz.RoleUnderwriter)
	require.Equal(t, authz.Actor{ID: 4, Role: authz.RoleUnderwriter}, u.Actor())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	require.True(t, s.Expired(now))
	require.False(t, s.Expired(now.Add(-time.Second)))
}
