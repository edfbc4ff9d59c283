package observability_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "removestar", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, observability.ExportConfig{}, cfg.Export)
	assert.False(t, cfg.DebugTrace)
	assert.False(t, cfg.LogJSON)
}

func TestConfig_WithEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		want  observability.ExportConfig
		ratio float64
	}{
		{
			name: "unset",
			env:  map[string]string{},
		},
		{
			name: "collector",
			env: map[string]string{
				"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
				"OTEL_EXPORTER_OTLP_HEADERS":  "authorization=Bearer x",
				"OTEL_EXPORTER_OTLP_INSECURE": "true",
				"OTEL_TRACES_SAMPLER_ARG":     "0.25",
			},
			want: observability.ExportConfig{
				Endpoint: "localhost:4317",
				Headers:  map[string]string{"authorization": "Bearer x"},
				Insecure: true,
			},
			ratio: 0.25,
		},
		{
			name: "bad ratio ignored",
			env: map[string]string{
				"OTEL_EXPORTER_OTLP_INSECURE": "yes",
				"OTEL_TRACES_SAMPLER_ARG":     "2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"OTEL_EXPORTER_OTLP_ENDPOINT",
				"OTEL_EXPORTER_OTLP_HEADERS",
				"OTEL_EXPORTER_OTLP_INSECURE",
				"OTEL_TRACES_SAMPLER_ARG",
			} {
				t.Setenv(key, tt.env[key])
			}

			cfg := observability.DefaultConfig().WithEnv()

			assert.Equal(t, tt.want, cfg.Export)
			assert.InDelta(t, tt.ratio, cfg.SampleRatio, 1e-9)
			assert.Equal(t, "removestar", cfg.ServiceName)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"value with equals", "auth=a=b", map[string]string{"auth": "a=b"}},
		{"no equals", "invalid", nil},
		{"partly invalid", "invalid,k=v", map[string]string{"k": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseHeaders(tt.input))
		})
	}
}
