package application

import (
	"context"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

// DefaultJurisdiction is used when an application has no current address.
const DefaultJurisdiction = "CA"

// NumberGenerator allocates #CC-YYYY-NNNNN numbers from the highest stored one.
type NumberGenerator struct {
	defaultJurisdiction string
}

// NewNumberGenerator builds a generator falling back to defaultJurisdiction.
func NewNumberGenerator(defaultJurisdiction string) (*NumberGenerator, error) {
	code, err := domain.NormalizeJurisdiction(defaultJurisdiction)
	if err != nil {
		return nil, err
	}
	return &NumberGenerator{defaultJurisdiction: code}, nil
}

// JurisdictionFor picks the applicant's current state or the default.
func (g *NumberGenerator) JurisdictionFor(app *domain.Application) string {
	if code, ok := app.Jurisdiction(); ok {
		if normalized, err := domain.NormalizeJurisdiction(code); err == nil {
			return normalized
		}
	}
	return g.defaultJurisdiction
}

// Next returns the number after the highest stored one for jurisdiction and year.
// It must run inside the transaction that inserts the application.
func (g *NumberGenerator) Next(ctx context.Context, src ports.NumberSource, jurisdiction string, year int) (domain.ApplicationNumber, error) {
	prefix, err := domain.NumberPrefix(jurisdiction, year)
	if err != nil {
		return "", err
	}
	if err := src.LockNumberPrefix(ctx, prefix); err != nil {
		return "", err
	}
	latest, err := src.LatestNumber(ctx, prefix)
	if err != nil {
		return "", err
	}
	seq, err := domain.NextSequence(latest)
	if err != nil {
		return "", err
	}
	return domain.FormatApplicationNumber(jurisdiction, year, seq)
}
