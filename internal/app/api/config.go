package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/events"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
)

// EventsBackend names where domain events are published.
type EventsBackend string

const (
	EventsNone  EventsBackend = "none"
	EventsRedis EventsBackend = "redis"
	EventsKafka EventsBackend = "kafka"
)

const defaultPurgeInterval = time.Hour

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	OTLPEndpoint string
	OTLPInsecure bool

	PostgresDSN string

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	JWTSecret string
	JWTTTL    time.Duration

	DefaultJurisdiction string
	NumberMaxAttempts   int

	BlobDir     string
	BlobBaseURL string

	EventsBackend EventsBackend
	RedisURL      string
	RedisStream   string
	KafkaBrokers  []string
	KafkaTopic    string

	SessionPurgeInterval time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates them.
// Every problem is reported at once.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                envDefault("PORT", "8080"),
		Environment:         envDefault("ENVIRONMENT", "local"),
		LogLevel:            envDefault("LOG_LEVEL", "info"),
		OTLPEndpoint:        strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure:        os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0",
		PostgresDSN:         strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:     envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:   envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:    isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              auth.DefaultTTL,
		DefaultJurisdiction: envDefault("DEFAULT_JURISDICTION", application.DefaultJurisdiction),
		NumberMaxAttempts:   application.DefaultNumberAttempts,
		BlobDir:             strings.TrimSpace(os.Getenv("BLOB_DIR")),
		BlobBaseURL:         strings.TrimRight(envDefault("BLOB_BASE_URL", "/files"), "/"),
		EventsBackend:       EventsBackend(strings.ToLower(envDefault("EVENTS_BACKEND", string(EventsNone)))),
		RedisURL:            strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisStream:         envDefault("REDIS_STREAM", events.DefaultStream),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          envDefault("KAFKA_TOPIC", events.DefaultTopic),
	}

	var errs []error
	if len(cfg.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 bytes"))
	}
	if minutes, ok, err := positiveInt("JWT_TTL_MINUTES"); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.JWTTTL = time.Duration(minutes) * time.Minute
	}
	if attempts, ok, err := positiveInt("NUMBER_MAX_ATTEMPTS"); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.NumberMaxAttempts = attempts
	}
	cfg.SessionPurgeInterval = defaultPurgeInterval
	if minutes, ok, err := positiveInt("SESSION_PURGE_INTERVAL_MINUTES"); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.SessionPurgeInterval = time.Duration(minutes) * time.Minute
	}
	if code, err := domain.NormalizeJurisdiction(cfg.DefaultJurisdiction); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_JURISDICTION: %w", err))
	} else {
		cfg.DefaultJurisdiction = code
	}
	switch cfg.EventsBackend {
	case EventsNone:
	case EventsRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when EVENTS_BACKEND=redis"))
		}
	case EventsKafka:
		if len(cfg.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENTS_BACKEND must be one of none, redis, kafka; got %q", cfg.EventsBackend))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func positiveInt(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, true, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
