package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	logKeyTraceID = "trace_id"
	logKeySpanID  = "span_id"
	logKeyFile    = "file"
	logKeyService = "service"
	logKeyEnv     = "env"
	logKeyMode    = "mode"
)

type fileKey struct{}

// WithFile returns a context whose log records carry path as "file".
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey{}, path)
}

// FileFromContext returns the path stored by WithFile.
func FileFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(fileKey{}).(string)

	return path, ok && path != ""
}

// NewLogger builds the structured logger for cfg. Records are text, or JSON
// when cfg.LogJSON is set, and pass through a ContextHandler.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var base slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogJSON {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewContextHandler(base, cfg))
}

// ContextHandler stamps records with the service identity from Config and
// with whatever the record's context knows: the active span and the file
// being fixed.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next. The service, mode and environment of cfg
// are attached once, outside any group.
func NewContextHandler(next slog.Handler, cfg Config) *ContextHandler {
	identity := []slog.Attr{
		slog.String(logKeyService, cfg.ServiceName),
		slog.String(logKeyMode, string(cfg.Mode)),
	}

	if cfg.Environment != "" {
		identity = append(identity, slog.String(logKeyEnv, cfg.Environment))
	}

	return &ContextHandler{next: next.WithAttrs(identity)}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	if path, ok := FileFromContext(ctx); ok {
		record.AddAttrs(slog.String(logKeyFile, path))
	}

	if err := h.next.Handle(ctx, record); err != nil {
		return fmt.Errorf("log handler: %w", err)
	}

	return nil
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
