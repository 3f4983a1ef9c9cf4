//go:build integration
// +build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

func setupUsersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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
	require.NoError(t, db.AutoMigrate(Models()...))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func customer(t *testing.T, n int) *domain.User {
	t.Helper()
	user, err := domain.NewCustomer(
		fmt.Sprintf("user%d@example.com", n),
		fmt.Sprintf("+1555000%04d", n),
		"Test", fmt.Sprintf("User%d", n),
		"correct horse battery", bcrypt.MinCost,
	)
	require.NoError(t, err)
	return user
}

func TestRepository_InsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, customer(t, 1))
	require.NoError(t, err)
	assert.NotZero(t, saved.Entity.ID)
	assert.Equal(t, authz.RoleCustomer, saved.Entity.Role)

	fetched, err := repo.GetByEmail(ctx, "user1@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved.Entity.ID, fetched.Entity.ID)
	assert.True(t, fetched.Entity.CheckPassword("correct horse battery"))

	dupEmail := customer(t, 2)
	dupEmail.Email = "user1@example.com"
	_, err = repo.Insert(ctx, dupEmail)
	assert.ErrorIs(t, err, ports.ErrDuplicateEmail)

	dupPhone := customer(t, 3)
	dupPhone.PhoneNumber = saved.Entity.PhoneNumber
	_, err = repo.Insert(ctx, dupPhone)
	assert.ErrorIs(t, err, ports.ErrDuplicatePhone)
}

func TestRepository_UpdateRoleListAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	var ids []int64
	for i := 1; i <= 3; i++ {
		saved, err := repo.Insert(ctx, customer(t, i))
		require.NoError(t, err)
		ids = append(ids, saved.Entity.ID)
	}

	promoted, err := repo.UpdateRole(ctx, ids[0], authz.RoleLoanOfficer)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleLoanOfficer, promoted.Entity.Role)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err = repo.GetByID(ctx, ids[1])
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ids[1]), ports.ErrNotFound)
	_, err = repo.UpdateRole(ctx, ids[1], authz.RoleUnderwriter)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, domain.Session{TokenID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.Session{TokenID: "stale", UserID: 1, ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.Session{TokenID: "other", UserID: 2, ExpiresAt: now.Add(time.Hour)}))

	active, err := store.Active(ctx, "live", now)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = store.Active(ctx, "stale", now)
	require.NoError(t, err)
	assert.False(t, active)

	purged, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.RevokeUser(ctx, 1))
	active, err = store.Active(ctx, "live", now)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = store.Active(ctx, "other", now)
	require.NoError(t, err)
	assert.True(t, active)
}
