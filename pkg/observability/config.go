// Package observability wires OpenTelemetry tracing and metrics and the
// slog logger shared by the removestar command line, language server and
// MCP server.
package observability

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command line run.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
	// ModeLSP is the language server.
	ModeLSP AppMode = "lsp"
)

const (
	defaultServiceName     = "removestar"
	defaultShutdownTimeout = 5 * time.Second

	envEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envHeaders    = "OTEL_EXPORTER_OTLP_HEADERS"
	envInsecure   = "OTEL_EXPORTER_OTLP_INSECURE"
	envSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// ExportConfig addresses the OTLP gRPC collector.
type ExportConfig struct {
	// Endpoint is host:port. Empty disables export.
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	Export ExportConfig

	// DebugTrace samples every span and logs dropped span attributes.
	DebugTrace bool
	// SampleRatio samples this fraction of root traces. Zero or one keeps all.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	// ShutdownTimeout bounds the final flush. Zero means five seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// WithEnv reads the exporter address and trace sampling ratio from the
// standard OTEL_* variables.
func (cfg Config) WithEnv() Config {
	cfg.Export = ExportConfig{
		Endpoint: os.Getenv(envEndpoint),
		Headers:  ParseHeaders(os.Getenv(envHeaders)),
		Insecure: os.Getenv(envInsecure) == "true",
	}

	if ratio, err := strconv.ParseFloat(os.Getenv(envSamplerArg), 64); err == nil && ratio >= 0 && ratio <= 1 {
		cfg.SampleRatio = ratio
	}

	return cfg
}

func (cfg Config) shutdownTimeout() time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}

	return cfg.ShutdownTimeout
}

// ParseHeaders parses the "key=value,key=value" format of
// OTEL_EXPORTER_OTLP_HEADERS. Pairs without "=" are skipped; nil means no
// usable pair.
func ParseHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return headers
}
