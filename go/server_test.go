package loanserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	loanserver "github.com/Apurer/auto-loan-origination/go"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/blob"
	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	appmemory "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/memory"
	appworkflows "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/workflows"
	appservice "github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	userhttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/http/mapper"
	usermemory "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/memory"
	userservice "github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	users  *userservice.Service
	blobs  *blob.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewIssuer(testSecret)
	require.NoError(t, err)
	blobs := blob.NewMemoryStore("https://files.test")
	apps := appservice.NewService(appmemory.NewRepository(), appservice.WithBlobStore(blobs))
	users := userservice.NewService(usermemory.NewRepository(), issuer,
		userservice.WithSessionStore(usermemory.NewSessionStore()),
		userservice.WithOwnedDataCleaner(apps),
		userservice.WithPasswordCost(bcrypt.MinCost),
	)
	responder := apierrors.NewResponder("", apierrors.WithMappers(apphttpmapper.MapError, userhttpmapper.MapError))
	handlers := loanserver.Handlers{
		Applications: loanserver.NewApplicationAPI(apps, appworkflows.NewInlineApplicationWorkflows(apps), responder),
		Users:        loanserver.NewUserAPI(users, responder),
	}
	router := loanserver.NewRouter(handlers, auth.Middleware(issuer, users, responder))
	return &testServer{t: t, router: router, users: users, blobs: blobs}
}

// signup registers a user through the API, optionally elevates them and returns a bearer token.
func (s *testServer) signup(email, phone, role string) (int64, string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/users", "", map[string]any{
		"email":        email,
		"phone_number": phone,
		"first_name":   "Test",
		"last_name":    "User",
		"password":     "correct-horse",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var user userhttpmapper.User
	decode(s.t, rec, &user)

	if role != "" {
		_, err := s.users.AssignRole(context.Background(), usertypes.AssignRoleInput{ID: user.ID, Role: role})
		require.NoError(s.t, err)
	}

	rec = s.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"email": email, "password": "correct-horse"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var token userhttpmapper.Token
	decode(s.t, rec, &token)
	require.Equal(s.t, "Bearer", token.TokenType)
	return user.ID, token.AccessToken
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req)
}

func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	decode(t, rec, &problem)
	return problem
}

func completeApplication(vin string) map[string]any {
	return map[string]any{
		"purchase_price": "25000",
		"down_payment":   "5000",
		"loan_amount":    "20000",
		"term_months":    60,
		"apr":            "5.9",
		"personal_info": map[string]any{
			"first_name":    "Dana",
			"last_name":     "Reyes",
			"email":         "dana.reyes@example.com",
			"phone_number":  "+15555550123",
			"date_of_birth": "1988-07-02",
		},
		"vehicle": map[string]any{
			"vin":          vin,
			"year":         2024,
			"make":         "Honda",
			"model":        "Accord",
			"mileage":      1200,
			"vehicle_type": "used",
		},
		"financial_info": map[string]any{
			"employment_type":  "full_time",
			"years_employed":   4,
			"annual_income":    "72000",
			"monthly_expenses": "2100",
			"credit_band":      "good",
		},
		"addresses": []map[string]any{{
			"street":           "12 Harbor Way",
			"city":             "Mobile",
			"state":            "AL",
			"zip":              "36602",
			"address_type":     "current",
			"years_at_address": 3,
		}},
	}
}
