package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
)

// jsonLogger returns a debug-level JSON logger behind a ContextHandler and
// a function decoding the single record it wrote.
func jsonLogger(t *testing.T, cfg observability.Config) (*slog.Logger, func() map[string]any) {
	t.Helper()

	var buf bytes.Buffer

	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewContextHandler(base, cfg))

	return logger, func() map[string]any {
		var record map[string]any

		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

		return record
	}
}

func sampledContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestContextHandler_Identity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  func() observability.Config
		want map[string]any
		omit []string
	}{
		{
			name: "defaults",
			cfg:  observability.DefaultConfig,
			want: map[string]any{"service": "removestar", "mode": "cli"},
			omit: []string{"env"},
		},
		{
			name: "lsp with environment",
			cfg: func() observability.Config {
				cfg := observability.DefaultConfig()
				cfg.Mode = observability.ModeLSP
				cfg.Environment = "ci"

				return cfg
			},
			want: map[string]any{"service": "removestar", "mode": "lsp", "env": "ci"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, record := jsonLogger(t, tt.cfg())
			logger.Info("started")

			got := record()
			for key, value := range tt.want {
				assert.Equal(t, value, got[key], key)
			}

			for _, key := range tt.omit {
				assert.NotContains(t, got, key)
			}
		})
	}
}

func TestContextHandler_ContextValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  func(t *testing.T) context.Context
		want map[string]any
		omit []string
	}{
		{
			name: "empty context",
			ctx:  func(*testing.T) context.Context { return context.Background() },
			omit: []string{"trace_id", "span_id", "file"},
		},
		{
			name: "active span",
			ctx:  sampledContext,
			want: map[string]any{"trace_id": "0102030405060708090a0b0c0d0e0f10", "span_id": "0102030405060708"},
			omit: []string{"file"},
		},
		{
			name: "file",
			ctx: func(*testing.T) context.Context {
				return observability.WithFile(context.Background(), "pkg/mod.py")
			},
			want: map[string]any{"file": "pkg/mod.py"},
			omit: []string{"trace_id"},
		},
		{
			name: "empty file",
			ctx: func(*testing.T) context.Context {
				return observability.WithFile(context.Background(), "")
			},
			omit: []string{"file"},
		},
		{
			name: "span and file",
			ctx: func(t *testing.T) context.Context {
				return observability.WithFile(sampledContext(t), "a.py")
			},
			want: map[string]any{"file": "a.py", "span_id": "0102030405060708"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, record := jsonLogger(t, observability.DefaultConfig())
			logger.InfoContext(tt.ctx(t), "fixed file")

			got := record()
			for key, value := range tt.want {
				assert.Equal(t, value, got[key], key)
			}

			for _, key := range tt.omit {
				assert.NotContains(t, got, key)
			}
		})
	}
}

func TestContextHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	logger, record := jsonLogger(t, observability.DefaultConfig())

	logger.With("op", "fix").WithGroup("resolve").Info("module loaded", "module", ".utils")

	got := record()
	assert.Equal(t, "removestar", got["service"])
	assert.Equal(t, "fix", got["op"])

	resolve, ok := got["resolve"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ".utils", resolve["module"])
}

func TestFileFromContext(t *testing.T) {
	t.Parallel()

	_, ok := observability.FileFromContext(context.Background())
	assert.False(t, ok)

	path, ok := observability.FileFromContext(observability.WithFile(context.Background(), "x.py"))
	assert.True(t, ok)
	assert.Equal(t, "x.py", path)
}

func TestNewLogger_TextAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg, &buf)

	logger.Info("dropped")
	logger.WarnContext(observability.WithFile(context.Background(), "m.py"), "kept", "module", ".a")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "module=.a")
	assert.Contains(t, out, "file=m.py")
	assert.Contains(t, out, "service=removestar")
}
