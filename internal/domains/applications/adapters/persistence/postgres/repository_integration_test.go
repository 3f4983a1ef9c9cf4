//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	apppostgres "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/persistence/postgres"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/platform/migrations"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("loans_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func draft(t *testing.T, owner int64, number, vin string) *domain.Application {
	t.Helper()
	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	app, err := domain.NewApplication(owner, domain.LoanTerms{
		PurchasePrice: decimal.NewFromInt(25000),
		DownPayment:   decimal.NewFromInt(5000),
		LoanAmount:    decimal.NewFromInt(20000),
		TermMonths:    60,
		APR:           decimal.NewNullDecimal(decimal.RequireFromString("5.9")),
	})
	require.NoError(t, err)
	if number != "" {
		require.NoError(t, app.AssignNumber(domain.ApplicationNumber(number)))
	}
	require.NoError(t, app.SetVehicle(domain.Vehicle{
		VIN: vin, Year: 2024, Make: "Honda", Model: "Accord", Type: domain.VehicleNew,
	}, now))
	require.NoError(t, app.ReplaceAddresses([]domain.Address{{
		Street: "12 Harbor Way", City: "Mobile", State: "AL", ZIP: "36602", Type: domain.AddressCurrent, YearsAtAddress: 2,
	}}))
	return app
}

func TestPostgresRepository_InsertAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := apppostgres.NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, draft(t, 7, "#AL-2026-00001", "1HGCM82633A004352"))
	require.NoError(t, err)
	assert.NotZero(t, saved.Entity.ID)
	assert.False(t, saved.Metadata.CreatedAt.IsZero())

	fetched, err := repo.GetByID(ctx, saved.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationNumber("#AL-2026-00001"), fetched.Entity.Number)
	assert.True(t, fetched.Entity.Terms.LoanAmount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, fetched.Entity.MonthlyPayment.Valid)
	require.NotNil(t, fetched.Entity.Vehicle)
	assert.Equal(t, "1HGCM82633A004352", fetched.Entity.Vehicle.VIN)
	require.Len(t, fetched.Entity.Addresses, 1)
	assert.NotZero(t, fetched.Entity.Addresses[0].ID)

	latest, err := repo.LatestNumber(ctx, "#AL-2026-")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationNumber("#AL-2026-00001"), latest)

	_, err = repo.Insert(ctx, draft(t, 8, "#AL-2026-00001", "2HGCM82633A004352"))
	require.ErrorIs(t, err, ports.ErrDuplicateNumber)
	_, err = repo.Insert(ctx, draft(t, 8, "#AL-2026-00002", "1HGCM82633A004352"))
	require.ErrorIs(t, err, ports.ErrDuplicateVIN)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_ReviewAndCascadeDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := apppostgres.NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, draft(t, 7, "#AL-2026-00001", "1HGCM82633A004352"))
	require.NoError(t, err)
	id := saved.Entity.ID

	review, err := repo.GetOrCreateReview(ctx, id)
	require.NoError(t, err)
	assert.NotZero(t, review.Entity.ID)
	assert.False(t, review.Entity.AllComplete())

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	for _, d := range domain.Dimensions {
		_, err := review.Entity.SetFlag(d, true, 99, now)
		require.NoError(t, err)
	}
	_, err = repo.SaveReview(ctx, review.Entity)
	require.NoError(t, err)

	again, err := repo.GetOrCreateReview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, review.Entity.ID, again.Entity.ID)
	assert.True(t, again.Entity.AllComplete())
	require.NotNil(t, again.Entity.ReviewedBy)
	assert.EqualValues(t, 99, *again.Entity.ReviewedBy)

	require.NoError(t, repo.Delete(ctx, id))
	require.ErrorIs(t, repo.Delete(ctx, id), ports.ErrNotFound)

	var vehicles int64
	require.NoError(t, db.Table("vehicles").Count(&vehicles).Error)
	assert.Zero(t, vehicles)
	var reviews int64
	require.NoError(t, db.Table("application_reviews").Count(&reviews).Error)
	assert.Zero(t, reviews)
}

func TestPostgresRepository_ListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := apppostgres.NewRepository(db)
	ctx := context.Background()

	vins := []string{"1HGCM82633A004352", "2HGCM82633A004352", "3HGCM82633A004352"}
	for i, owner := range []int64{7, 7, 8} {
		_, err := repo.Insert(ctx, draft(t, owner, fmt.Sprintf("#AL-2026-%05d", i+1), vins[i]))
		require.NoError(t, err)
	}

	owner := int64(7)
	page, err := repo.List(ctx, apptypes.ApplicationFilter{OwnerID: &owner, Page: 1, PerPage: 1, SortBy: apptypes.SortCreatedAt})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	page, err = repo.List(ctx, apptypes.ApplicationFilter{
		Statuses: []domain.Status{domain.StatusDraft, domain.StatusSubmitted},
		Page:     1,
		PerPage:  10,
		SortBy:   apptypes.SortLoanAmount,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	removed, err := repo.DeleteByOwner(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
}

func TestPostgresRepository_ConcurrentNumbering(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	svc := application.NewService(apppostgres.NewRepository(db), application.WithClock(func() time.Time {
		return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	}))
	ctx := context.Background()
	actor := authz.Actor{ID: 7, Role: authz.RoleCustomer}

	const workers = 4
	numbers := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			proj, err := svc.CreateApplication(ctx, actor, apptypes.CreateApplicationInput{
				Terms: domain.LoanTerms{
					PurchasePrice: decimal.NewFromInt(25000),
					DownPayment:   decimal.NewFromInt(5000),
					LoanAmount:    decimal.NewFromInt(20000),
					TermMonths:    60,
				},
				Addresses: []domain.Address{{Street: "1 Main", City: "Mobile", State: "AL", ZIP: "36602", Type: domain.AddressCurrent}},
			})
			if assert.NoError(t, err) {
				numbers[i] = proj.Entity.Number.String()
			}
		}(i)
	}
	wg.Wait()

	sort.Strings(numbers)
	assert.Equal(t, []string{"#AL-2026-00001", "#AL-2026-00002", "#AL-2026-00003", "#AL-2026-00004"}, numbers)
}
