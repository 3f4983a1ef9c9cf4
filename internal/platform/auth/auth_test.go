package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type revoked map[string]bool

func (r revoked) SessionActive(_ context.Context, tokenID string) (bool, error) {
	return !r[tokenID], nil
}

func newIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testSecret, WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return issuer
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Now()
	issuer := newIssuer(t, now)
	token, err := issuer.Issue(authz.Actor{ID: 42, Role: authz.RoleLoanOfficer})
	require.NoError(t, err)
	require.NotEmpty(t, token.ID)
	require.WithinDuration(t, now.Add(time.Hour), token.ExpiresAt, time.Second)

	actor, id, err := issuer.Parse(token.Value)
	require.NoError(t, err)
	require.Equal(t, authz.Actor{ID: 42, Role: authz.RoleLoanOfficer}, actor)
	require.Equal(t, token.ID, id)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token, err := newIssuer(t, past).Issue(authz.Actor{ID: 1, Role: authz.RoleCustomer})
	require.NoError(t, err)
	_, _, err = newIssuer(t, time.Now()).Parse(token.Value)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewIssuer("ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	fresh, err := other.Issue(authz.Actor{ID: 1, Role: authz.RoleCustomer})
	require.NoError(t, err)
	_, _, err = newIssuer(t, time.Now()).Parse(fresh.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRejectsShortSecret(t *testing.T) {
	_, err := NewIssuer("short")
	require.ErrorIs(t, err, ErrWeakSecret)
}

func TestIssueRequiresIdentity(t *testing.T) {
	_, err := newIssuer(t, time.Now()).Issue(authz.Actor{})
	require.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := newIssuer(t, time.Now())
	sessions := revoked{}
	router := gin.New()
	router.GET("/me", Middleware(issuer, sessions, apierrors.NewResponder("")), func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role, "jti": TokenIDFrom(c)})
	})
	token, err := issuer.Issue(authz.Actor{ID: 7, Role: authz.RoleCustomer})
	require.NoError(t, err)

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, call("").Code)
	require.Equal(t, http.StatusUnauthorized, call("Basic abc").Code)
	require.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt").Code)

	ok := call("Bearer " + token.Value)
	require.Equal(t, http.StatusOK, ok.Code)
	require.JSONEq(t, `{"id":7,"role":"customer","jti":"`+token.ID+`"}`, ok.Body.String())

	sessions[token.ID] = true
	require.Equal(t, http.StatusUnauthorized, call("bearer "+token.Value).Code)
}

func TestActorFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.False(t, ActorFrom(c).Authenticated())
	require.Empty(t, TokenIDFrom(c))
}
