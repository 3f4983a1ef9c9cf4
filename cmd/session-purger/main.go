package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	userpostgres "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/persistence/postgres"
	"github.com/Apurer/auto-loan-origination/internal/platform/observability"
	platformpostgres "github.com/Apurer/auto-loan-origination/internal/platform/postgres"
)

func main() {
	interval := flag.Duration("interval", 0, "repeat the purge at this interval; zero runs once")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(observability.Config{
		ServiceName: "session-purger",
		LogLevel:    os.Getenv("LOG_LEVEL"),
	})
	db, cleanup, err := platformpostgres.Open(ctx, os.Getenv("POSTGRES_DSN"), logger)
	if err != nil {
		log.Fatalf("cannot purge sessions: %v", err)
	}
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set; cannot purge sessions")
	}
	store := userpostgres.NewSessionStore(db)

	purge := func() {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		removed, err := store.PurgeExpired(runCtx, time.Now())
		if err != nil {
			logger.Error("failed to purge sessions", slog.String("error", err.Error()))
			return
		}
		logger.Info("session purge completed", slog.Int64("removed", removed))
	}

	purge()
	if *interval <= 0 {
		return
	}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}
