// Command promote-user assigns a role to an existing account. Sign-up only
// ever creates customers, so loan officers and underwriters are made here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	userpostgres "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/persistence/postgres"
	userservice "github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/platform/observability"
	platformpostgres "github.com/Apurer/auto-loan-origination/internal/platform/postgres"
)

func main() {
	id := flag.Int64("id", 0, "user id")
	role := flag.String("role", "", "customer, loan_officer or underwriter")
	flag.Parse()
	if *id <= 0 || *role == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := observability.NewLogger(observability.Config{ServiceName: "promote-user", LogLevel: os.Getenv("LOG_LEVEL")})
	db, cleanup, err := platformpostgres.Open(ctx, os.Getenv("POSTGRES_DSN"), logger)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set; nothing to promote")
	}

	service := userservice.NewService(
		userpostgres.NewRepository(db),
		nil,
		userservice.WithSessionStore(userpostgres.NewSessionStore(db)),
		userservice.WithLogger(logger),
	)
	updated, err := service.AssignRole(ctx, usertypes.AssignRoleInput{ID: *id, Role: *role})
	if err != nil {
		log.Fatalf("assign role: %v", err)
	}
	fmt.Printf("user %d (%s) is now %s\n", updated.Entity.ID, updated.Entity.Email, updated.Entity.Role)
}
