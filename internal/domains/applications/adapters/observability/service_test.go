package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	appmemory "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/memory"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_InstrumentsCreate(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	svc := New(application.NewService(appmemory.NewRepository()), WithMeter(meter), WithTracer(tracer), WithLogger(logger))
	ctx := context.Background()

	_, err := svc.CreateApplication(ctx, authz.Actor{ID: 3, Role: authz.RoleCustomer}, apptypes.CreateApplicationInput{
		Terms: domain.LoanTerms{
			PurchasePrice: decimal.NewFromInt(30000),
			DownPayment:   decimal.Zero,
			LoanAmount:    decimal.NewFromInt(30000),
			TermMonths:    72,
			APR:           decimal.NewNullDecimal(decimal.Zero),
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, counterValue(t, reader, "applications.service.created"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "Service.CreateApplication", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Contains(t, logs.String(), "application created")
}

func TestService_RejectionsAreNotSpanErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	svc := New(application.NewService(appmemory.NewRepository()), WithTracer(tracer), WithLogger(logger))

	_, err := svc.GetReview(context.Background(), authz.Actor{ID: 3, Role: authz.RoleCustomer}, apptypes.ApplicationIdentifier{ID: 1})
	require.ErrorIs(t, err, authz.ErrForbidden)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Contains(t, logs.String(), `"level":"WARN"`)
	require.NotContains(t, logs.String(), `"level":"ERROR"`)
}

func TestEventPublisher_CountsReviewCompletion(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	publisher := NewEventPublisher(nil, WithPublisherMeter(meter))
	err := publisher.Publish(context.Background(),
		domain.ReviewCompleted{ApplicationID: 1, ReviewerID: 9},
		domain.ApplicationSubmitted{ApplicationID: 1, OwnerID: 2},
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, counterValue(t, reader, "applications.service.review_completed"))
	require.EqualValues(t, 2, counterValue(t, reader, "applications.events.published"))
}
