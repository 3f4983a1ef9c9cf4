package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

type fixedNumbers struct {
	latest domain.ApplicationNumber
	locked []string
}

func (f *fixedNumbers) LockNumberPrefix(_ context.Context, prefix string) error {
	f.locked = append(f.locked, prefix)
	return nil
}

func (f *fixedNumbers) LatestNumber(context.Context, string) (domain.ApplicationNumber, error) {
	return f.latest, nil
}

func TestNumberGenerator_Next(t *testing.T) {
	gen, err := NewNumberGenerator(DefaultJurisdiction)
	require.NoError(t, err)
	ctx := context.Background()

	src := &fixedNumbers{}
	number, err := gen.Next(ctx, src, "AL", 2026)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationNumber("#AL-2026-00001"), number)
	require.Equal(t, []string{"#AL-2026-"}, src.locked)

	src.latest = "#AL-2026-00041"
	number, err = gen.Next(ctx, src, "AL", 2026)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationNumber("#AL-2026-00042"), number)

	src.latest = "#AL-2026-99999"
	_, err = gen.Next(ctx, src, "AL", 2026)
	require.ErrorIs(t, err, domain.ErrSequenceExhausted)
}

func TestNumberGenerator_Jurisdiction(t *testing.T) {
	_, err := NewNumberGenerator("California")
	require.ErrorIs(t, err, domain.ErrInvalidJurisdiction)

	gen, err := NewNumberGenerator("ny")
	require.NoError(t, err)

	app, err := domain.NewApplication(1, standardTerms())
	require.NoError(t, err)
	require.Equal(t, "NY", gen.JurisdictionFor(app))

	mailing := alabamaAddress()
	mailing.Type = domain.AddressMailing
	mailing.State = "GA"
	require.NoError(t, app.ReplaceAddresses([]domain.Address{mailing, alabamaAddress()}))
	require.Equal(t, "AL", gen.JurisdictionFor(app))
}
