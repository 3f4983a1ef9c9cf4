package loanserver_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	userhttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/http/mapper"
)

func userPath(id int64) string {
	return "/v1/users/" + strconv.FormatInt(id, 10)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	srv := newTestServer(t)
	srv.signup("dana@example.com", "+15555550101", "")

	rec := srv.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email": "DANA@example.com", "phone_number": "+15555550199", "password": "correct-horse",
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email": "not-an-email", "phone_number": "+15555550198", "password": "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	fields, ok := problemOf(t, rec).Extensions["fields"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "password")
}

func TestRegisteredUserIsCustomerWithoutHash(t *testing.T) {
	srv := newTestServer(t)
	id, token := srv.signup("dana@example.com", "+15555550101", "")

	rec := srv.do(http.MethodGet, userPath(id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	var user userhttpmapper.User
	decode(t, rec, &user)
	require.Equal(t, "customer", user.Role)
	require.Equal(t, "dana@example.com", user.Email)
}

func TestIssueTokenRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	srv.signup("dana@example.com", "+15555550101", "")

	rec := srv.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"email": "dana@example.com", "password": "wrong-horse"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = srv.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"email": "nobody@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	id, token := srv.signup("dana@example.com", "+15555550101", "")

	rec := srv.do(http.MethodPost, "/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(http.MethodGet, userPath(id), token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserDirectoryIsForReviewers(t *testing.T) {
	srv := newTestServer(t)
	customerID, customer := srv.signup("dana@example.com", "+15555550101", "")
	_, officer := srv.signup("olivia@example.com", "+15555550103", "loan_officer")

	rec := srv.do(http.MethodGet, "/v1/users", customer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(http.MethodGet, "/v1/users", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []userhttpmapper.User
	decode(t, rec, &users)
	require.Len(t, users, 2)

	rec = srv.do(http.MethodGet, userPath(customerID), officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteUserCascadesApplicationsAndSessions(t *testing.T) {
	srv := newTestServer(t)
	customerID, customer := srv.signup("dana@example.com", "+15555550101", "")
	_, officer := srv.signup("olivia@example.com", "+15555550103", "loan_officer")

	rec := srv.do(http.MethodPost, "/v1/applications", customer, completeApplication("1HGCM82633A004352"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var app apphttpmapper.Application
	decode(t, rec, &app)

	rec = srv.do(http.MethodDelete, userPath(customerID), customer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(http.MethodDelete, userPath(customerID), officer, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodGet, appPath(app.ID, ""), officer, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(http.MethodGet, userPath(customerID), customer, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
