package mapper

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

func TestToCreateInputParsesSections(t *testing.T) {
	apr := decimal.RequireFromString("5.9")
	input, err := ToCreateInput(CreateApplication{
		PurchasePrice: decimal.RequireFromString("25000"),
		DownPayment:   decimal.RequireFromString("5000"),
		LoanAmount:    decimal.RequireFromString("20000"),
		TermMonths:    60,
		APR:           &apr,
		PersonalInfo:  &PersonalInfo{FirstName: " Ada ", DateOfBirth: "1990-04-02"},
		Vehicle:       &Vehicle{VIN: "1hgcm82633a004352", VehicleType: "used"},
	})
	require.NoError(t, err)
	require.True(t, input.Terms.APR.Valid)
	require.Equal(t, "Ada", input.Personal.FirstName)
	require.Equal(t, time.Date(1990, time.April, 2, 0, 0, 0, 0, time.UTC), input.Personal.DateOfBirth)
	require.Equal(t, "1HGCM82633A004352", input.Vehicle.VIN)
	require.Nil(t, input.Financial)
}

func TestToCreateInputRejectsMalformedBirthDate(t *testing.T) {
	_, err := ToCreateInput(CreateApplication{PersonalInfo: &PersonalInfo{DateOfBirth: "02/04/1990"}})
	require.ErrorIs(t, err, domain.ErrInvalidFormat)

	problem, ok := MapError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	require.Contains(t, problem.Extensions["fields"], "personal_info.date_of_birth")
}

func TestToUpdateInputKeepsFieldPresence(t *testing.T) {
	term := 48
	empty := []Address{}
	input, err := ToUpdateInput(9, UpdateApplication{TermMonths: &term, Addresses: &empty})
	require.NoError(t, err)
	require.Equal(t, int64(9), input.ID)
	require.True(t, input.HasTermChanges())
	require.NotNil(t, input.Addresses)
	require.Empty(t, *input.Addresses)
	require.Nil(t, input.Progress)
}

func TestFromProjectionFormatsDates(t *testing.T) {
	submitted := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	app := &domain.Application{
		ID:            3,
		Number:        "#CA-2026-00003",
		Status:        domain.StatusSubmitted,
		Progress:      domain.ProgressTerms,
		SubmittedDate: &submitted,
		Addresses:     []domain.Address{{ID: 4, State: "CA", ZIP: "94107", Type: domain.AddressCurrent}},
	}
	out := FromProjection(apptypes.NewApplicationProjection(app, submitted, submitted))

	require.Equal(t, "#CA-2026-00003", out.ApplicationNumber)
	require.Equal(t, "2026-03-14", *out.SubmittedDate)
	require.Nil(t, out.APR)
	require.Nil(t, out.MonthlyPayment)
	require.Len(t, out.Addresses, 1)
	require.Equal(t, "current", out.Addresses[0].AddressType)
	require.NotNil(t, out.Documents)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ports.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("remove: %w", domain.ErrDocumentNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", application.ErrConflict, ports.ErrDuplicateVIN), http.StatusConflict},
		{fmt.Errorf("%w: %w", application.ErrInvalidInput, domain.ErrReviewIncomplete), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		problem, ok := MapError(tc.err)
		require.True(t, ok, tc.err.Error())
		require.Equal(t, tc.status, problem.Status, tc.err.Error())
	}

	_, ok := MapError(fmt.Errorf("boom"))
	require.False(t, ok)
}
