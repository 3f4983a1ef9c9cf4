package application

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/blob"
	appmemory "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/memory"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var (
	testNow = time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC)

	customer      = authz.Actor{ID: 7, Role: authz.RoleCustomer}
	otherCustomer = authz.Actor{ID: 8, Role: authz.RoleCustomer}
	officer       = authz.Actor{ID: 99, Role: authz.RoleLoanOfficer}
	underwriter   = authz.Actor{ID: 100, Role: authz.RoleUnderwriter}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func clock() time.Time { return testNow }

type fixture struct {
	repo   *appmemory.Repository
	blobs  *blob.MemoryStore
	events *recordingPublisher
	svc    *Service
}

func newFixture(opts ...Option) *fixture {
	repo := appmemory.NewRepository()
	repo.WithClock(clock)
	f := &fixture{repo: repo, blobs: blob.NewMemoryStore(""), events: &recordingPublisher{}}
	base := []Option{WithClock(clock), WithBlobStore(f.blobs), WithEventPublisher(f.events)}
	f.svc = NewService(repo, append(base, opts...)...)
	return f
}

func standardTerms() domain.LoanTerms {
	return domain.LoanTerms{
		PurchasePrice: dec("25000"),
		DownPayment:   dec("5000"),
		LoanAmount:    dec("20000"),
		TermMonths:    60,
		APR:           decimal.NewNullDecimal(dec("5.9")),
	}
}

func alabamaAddress() domain.Address {
	return domain.Address{
		Street:         "12 Harbor Way",
		City:           "Mobile",
		State:          "al",
		ZIP:            "36602",
		Type:           domain.AddressCurrent,
		YearsAtAddress: 3,
	}
}

func completeInput(vin string) apptypes.CreateApplicationInput {
	return apptypes.CreateApplicationInput{
		Terms: standardTerms(),
		Personal: &domain.PersonalInfo{
			FirstName:   "Dana",
			LastName:    "Reyes",
			Email:       "dana.reyes@example.com",
			PhoneNumber: "+15555550123",
			DateOfBirth: time.Date(1988, time.July, 2, 0, 0, 0, 0, time.UTC),
			SSNLastFour: "1234",
		},
		Vehicle: &domain.Vehicle{
			VIN:     vin,
			Year:    2024,
			Make:    "Honda",
			Model:   "Accord",
			Mileage: 1200,
			Type:    domain.VehicleUsed,
		},
		Financial: &domain.FinancialInfo{
			EmployerName:    "Acme Freight",
			EmploymentType:  domain.EmploymentFullTime,
			YearsEmployed:   4,
			AnnualIncome:    dec("72000"),
			MonthlyExpenses: dec("2100"),
			CreditBand:      domain.CreditGood,
		},
		Addresses: []domain.Address{alabamaAddress()},
	}
}

// submitted creates and submits a complete application owned by customer.
func (f *fixture) submitted(ctx context.Context, vin string) *apptypes.ApplicationProjection {
	created, err := f.svc.CreateApplication(ctx, customer, completeInput(vin))
	if err != nil {
		panic(err)
	}
	out, err := f.svc.SubmitApplication(ctx, customer, apptypes.ApplicationIdentifier{ID: created.Entity.ID})
	if err != nil {
		panic(err)
	}
	return out
}

func (f *fixture) completeReview(ctx context.Context, id int64, actor authz.Actor) *apptypes.ReviewProjection {
	var review *apptypes.ReviewProjection
	for _, d := range domain.Dimensions {
		var err error
		review, err = f.svc.SetReviewCompleteness(ctx, actor, apptypes.SetReviewCompletenessInput{
			ApplicationID: id,
			Dimension:     string(d),
			Value:         true,
		})
		if err != nil {
			panic(err)
		}
	}
	return review
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName())
	}
	return names
}

// staleNumbers hides the latest number for the first misses lookups, forcing
// a duplicate-number clash on insert.
type staleNumbers struct {
	ports.Repository
	misses *int
}

func (s staleNumbers) Transaction(ctx context.Context, fn func(context.Context, ports.Repository) error) error {
	return s.Repository.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		return fn(ctx, staleNumbers{Repository: repo, misses: s.misses})
	})
}

func (s staleNumbers) LatestNumber(ctx context.Context, prefix string) (domain.ApplicationNumber, error) {
	if *s.misses > 0 {
		*s.misses--
		return "", nil
	}
	return s.Repository.LatestNumber(ctx, prefix)
}
