package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
)

// TestAcceptance_EndToEnd runs a real fix with every signal wired to
// in-memory sinks and checks traces, metrics and logs line up.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte("def load():\n    pass\n"), 0o600))

	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("removestar")

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("removestar")

	requests, err := observability.NewRequestMetrics(meter)
	require.NoError(t, err)

	fixMetrics, err := observability.NewFixMetrics(meter)
	require.NoError(t, err)

	var logBuf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.Environment = "test"

	logger := slog.New(observability.NewContextHandler(
		slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}), cfg))

	opts := removestar.DefaultOptions()
	opts.Tracer = tracer
	opts.Logger = logger
	opts.Metrics = fixMetrics

	ctx, rootSpan := tracer.Start(context.Background(), "removestar.run")

	done := requests.Begin(ctx, "cli.run")

	result, err := removestar.FixCode(ctx, "from .helpers import *\nload()\n", dir, "main.py", opts)
	require.NoError(t, err)
	assert.Equal(t, "from .helpers import load\nload()\n", result.Source)

	done(false)
	logger.InfoContext(observability.WithFile(ctx, "main.py"), "run.complete", "files", 1)

	rootSpan.End()

	spans := spanExporter.GetSpans()

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["removestar.run"], "root span should exist")
	assert.True(t, spanNames["removestar.fix"], "fix span should exist")
	assert.True(t, spanNames["removestar.resolve"], "resolve span should exist")

	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans[1:] {
		assert.Equal(t, traceID, s.SpanContext.TraceID(), "span %q should share trace ID", s.Name)
	}

	var rm metricdata.ResourceMetrics

	require.NoError(t, metricReader.Collect(ctx, &rm))

	for _, name := range []string{
		"removestar.requests.total",
		"removestar.request.duration.seconds",
		"removestar.files.total",
		"removestar.files.changed.total",
		"removestar.names.total",
		"removestar.fix.duration.seconds",
	} {
		assert.NotNil(t, findMetric(rm, name), "%s should be recorded", name)
	}

	var logRecord map[string]any

	require.NoError(t, json.Unmarshal(logBuf.Bytes(), &logRecord))

	assert.Equal(t, traceID.String(), logRecord["trace_id"])
	assert.Contains(t, logRecord, "span_id")
	assert.Equal(t, "removestar", logRecord["service"])
	assert.Equal(t, "test", logRecord["env"])
	assert.Equal(t, "main.py", logRecord["file"])
	assert.Equal(t, "run.complete", logRecord["msg"])
}
