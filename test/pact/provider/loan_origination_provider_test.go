//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	loanserver "github.com/Apurer/auto-loan-origination/go"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/blob"
	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	appmemory "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/memory"
	appobs "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/observability"
	appworkflows "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/workflows"
	appservice "github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	userhttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/http/mapper"
	usermemory "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/observability"
	userservice "github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
	pacttest "github.com/Apurer/auto-loan-origination/test/pact"
)

const providerSecret = "pact-provider-secret-0123456789abcdef"

func TestLoanOriginationProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCustomerBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateApplicationExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedApplication(t)
			}
			return nil, nil
		},
		pacttest.StateApplicationMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves the real router over memory adapters, rebuilt on every state change
// so that identifiers and application numbers are deterministic.
type contractProviderApp struct {
	issuer *auth.Issuer
	server *httptest.Server

	mu      sync.RWMutex
	router  *gin.Engine
	service *appservice.Service
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	issuer, err := auth.NewIssuer(providerSecret)
	require.NoError(t, err)

	app := &contractProviderApp{issuer: issuer}
	app.reset(t)

	server := httptest.NewServer(http.HandlerFunc(app.serveHTTP))
	t.Cleanup(server.Close)
	app.server = server
	return app
}

func (a *contractProviderApp) serveHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	router := a.router
	a.mu.RUnlock()
	router.ServeHTTP(w, r)
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()

	apps := appservice.NewService(appmemory.NewRepository(), appservice.WithBlobStore(blob.NewMemoryStore("https://files.pact")))
	users := userservice.NewService(usermemory.NewRepository(), a.issuer,
		userservice.WithSessionStore(usermemory.NewSessionStore()),
		userservice.WithOwnedDataCleaner(apps),
	)
	responder := apierrors.NewResponder("", apierrors.WithMappers(apphttpmapper.MapError, userhttpmapper.MapError))
	appAPI := appobs.New(apps)
	handlers := loanserver.Handlers{
		Applications: loanserver.NewApplicationAPI(appAPI, appworkflows.NewInlineApplicationWorkflows(appAPI), responder),
		Users:        loanserver.NewUserAPI(userobs.New(users), responder),
	}
	router := loanserver.NewRouter(handlers, a.authenticate(responder))

	a.mu.Lock()
	a.router = router
	a.service = apps
	a.mu.Unlock()
}

// authenticate swaps the recorded placeholder credential for a signed token before the real
// middleware runs. Sessions are not tracked, so any signed token is accepted.
func (a *contractProviderApp) authenticate(responder *apierrors.Responder) gin.HandlerFunc {
	verify := auth.Middleware(a.issuer, nil, responder)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "Bearer "+pacttest.CustomerToken {
			token, err := a.issuer.Issue(customer())
			if err != nil {
				responder.RespondError(c, err)
				return
			}
			c.Request.Header.Set("Authorization", "Bearer "+token.Value)
		}
		verify(c)
	}
}

func (a *contractProviderApp) seedApplication(t testing.TB) {
	t.Helper()
	a.mu.RLock()
	service := a.service
	a.mu.RUnlock()

	projection, err := service.CreateApplication(context.Background(), customer(), apptypes.CreateApplicationInput{
		Terms: domain.LoanTerms{
			PurchasePrice: decimal.RequireFromString("25000"),
			DownPayment:   decimal.RequireFromString("5000"),
			LoanAmount:    decimal.RequireFromString("20000"),
			TermMonths:    60,
			APR:           decimal.NewNullDecimal(decimal.RequireFromString("5.9")),
		},
	})
	require.NoError(t, err)
	require.Equal(t, pacttest.ExistingApplicationID, projection.Entity.ID)
}

func customer() authz.Actor {
	return authz.Actor{ID: pacttest.CustomerID, Role: authz.RoleCustomer}
}
