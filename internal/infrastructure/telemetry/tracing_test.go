package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/nyos/apr/internal/infrastructure/telemetry"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartSpan(context.Background(), "generation.run",
		telemetry.SpanAttrSeed, int64(42),
		telemetry.SpanAttrCategories, []string{"batch", "qc"},
		telemetry.SpanAttrDays, 31,
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "generation.run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64(telemetry.SpanAttrSeed, 42))
	assert.Contains(t, spans[0].Attributes(), attribute.Int(telemetry.SpanAttrDays, 31))
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "generation.resolve")
	telemetry.RecordError(span, errors.New("dangling batch reference"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "dangling batch reference", spans[0].Status().Description)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

// ==================== Provider ====================

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	original := otel.GetTracerProvider()

	p, err := telemetry.Setup(ctx, telemetry.Config{Enabled: false, ServiceName: "apr-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Same(t, original, otel.GetTracerProvider())
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSetup_ExportsGenerationSpans(t *testing.T) {
	ctx := context.Background()
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	exporter := tracetest.NewInMemoryExporter()
	p, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        true,
		SamplingRatio:  1,
		ServiceName:    "apr-test",
		ServiceVersion: "1.2.3",
		Environment:    "test",
	}, zaptest.NewLogger(t), telemetry.WithExporter(exporter))
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	_, span := telemetry.StartSpan(ctx, "generation.run", telemetry.SpanAttrSeed, int64(7))
	span.End()
	require.NoError(t, p.Flush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "generation.run", spans[0].Name)

	res := make(map[attribute.Key]string)
	for _, kv := range spans[0].Resource.Attributes() {
		res[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "apr-test", res["service.name"])
	assert.Equal(t, "1.2.3", res["service.version"])
	assert.Equal(t, "test", res["deployment.environment.name"])
}

func TestSetup_NeverSample(t *testing.T) {
	ctx := context.Background()
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	exporter := tracetest.NewInMemoryExporter()
	p, err := telemetry.Setup(ctx, telemetry.Config{Enabled: true, SamplingRatio: 0, ServiceName: "apr-test"},
		zaptest.NewLogger(t), telemetry.WithExporter(exporter))
	require.NoError(t, err)

	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	_, span := telemetry.StartSpan(ctx, "generation.run")
	span.End()
	require.NoError(t, p.Flush(ctx))
	assert.Empty(t, exporter.GetSpans())
}
