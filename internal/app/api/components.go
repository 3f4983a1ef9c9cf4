package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/blob"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/events"
	appmemory "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/memory"
	appobs "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/observability"
	apppostgres "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/persistence/postgres"
	appservice "github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	appports "github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	usermemory "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/observability"
	userpostgres "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/persistence/postgres"
	userservice "github.com/Apurer/auto-loan-origination/internal/domains/users/application"
	userports "github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	"github.com/Apurer/auto-loan-origination/internal/platform/migrations"
	platformobservability "github.com/Apurer/auto-loan-origination/internal/platform/observability"
	platformpostgres "github.com/Apurer/auto-loan-origination/internal/platform/postgres"
	platformredis "github.com/Apurer/auto-loan-origination/internal/platform/redis"
)

// Components are the wired bounded-context services shared by the API and the worker.
type Components struct {
	Applications appports.Service
	Users        userports.Service
	Issuer       *auth.Issuer
	closers      []func() error
}

// Close releases connections in reverse order of acquisition.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// BuildComponents connects storage, blob and event backends and wraps each
// service in its observability decorator.
func BuildComponents(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (_ *Components, err error) {
	logger := instruments.Logger
	components := &Components{}
	defer func() {
		if err != nil {
			_ = components.Close()
		}
	}()

	db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return nil, err
	}
	components.closers = append(components.closers, func() error { closeDB(); return nil })
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	blobs, err := buildBlobStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	publisher, closePublisher, err := buildEventPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	components.closers = append(components.closers, closePublisher)
	numbers, err := appservice.NewNumberGenerator(cfg.DefaultJurisdiction)
	if err != nil {
		return nil, err
	}

	const appScope = "internal.applications.application"
	components.Applications = appobs.New(
		appservice.NewService(
			buildApplicationRepository(db, logger),
			appservice.WithBlobStore(blobs),
			appservice.WithEventPublisher(appobs.NewEventPublisher(
				publisher,
				appobs.WithPublisherLogger(logger),
				appobs.WithPublisherTracer(instruments.Tracer("internal.applications.events")),
				appobs.WithPublisherMeter(instruments.Meter("internal.applications.events")),
			)),
			appservice.WithNumberGenerator(numbers),
			appservice.WithNumberAttempts(cfg.NumberMaxAttempts),
			appservice.WithLogger(logger),
		),
		appobs.WithLogger(logger),
		appobs.WithTracer(instruments.Tracer(appScope)),
		appobs.WithMeter(instruments.Meter(appScope)),
	)

	components.Issuer, err = auth.NewIssuer(cfg.JWTSecret, auth.WithTTL(cfg.JWTTTL))
	if err != nil {
		return nil, err
	}
	userRepo, sessions := buildUserStores(db)
	const userScope = "internal.users.application"
	components.Users = userobs.New(
		userservice.NewService(
			userRepo,
			components.Issuer,
			userservice.WithSessionStore(sessions),
			userservice.WithOwnedDataCleaner(components.Applications),
			userservice.WithLogger(logger),
		),
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer(userScope)),
		userobs.WithMeter(instruments.Meter(userScope)),
	)
	return components, nil
}

func buildApplicationRepository(db *gorm.DB, logger *slog.Logger) appports.Repository {
	if db == nil {
		return appmemory.NewRepository()
	}
	logger.Info("application repository configured with postgres")
	return apppostgres.NewRepository(db)
}

func buildUserStores(db *gorm.DB) (userports.Repository, userports.SessionStore) {
	if db == nil {
		return usermemory.NewRepository(), usermemory.NewSessionStore()
	}
	return userpostgres.NewRepository(db), userpostgres.NewSessionStore(db)
}

func buildBlobStore(cfg Config, logger *slog.Logger) (appports.BlobStore, error) {
	if cfg.BlobDir == "" {
		logger.Warn("BLOB_DIR not set, documents are kept in memory")
		return blob.NewMemoryStore(cfg.BlobBaseURL), nil
	}
	store, err := blob.NewFileSystemStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		return nil, fmt.Errorf("open blob dir: %w", err)
	}
	return store, nil
}

func buildEventPublisher(ctx context.Context, cfg Config, logger *slog.Logger) (appports.EventPublisher, func() error, error) {
	noClose := func() error { return nil }
	switch cfg.EventsBackend {
	case EventsRedis:
		client, err := platformredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noClose, err
		}
		publisher, err := events.NewRedisPublisher(client, cfg.RedisStream)
		if err != nil {
			_ = client.Close()
			return nil, noClose, err
		}
		logger.Info("publishing application events to redis", slog.String("stream", cfg.RedisStream))
		return publisher, client.Close, nil
	case EventsKafka:
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, noClose, err
		}
		logger.Info("publishing application events to kafka", slog.String("topic", cfg.KafkaTopic))
		return publisher, publisher.Close, nil
	default:
		return appports.NoopEventPublisher, noClose, nil
	}
}
