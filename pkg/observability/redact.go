package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type verdict int

const (
	keep verdict = iota
	drop
	// measure replaces a text attribute with its size in bytes under
	// "<key>.bytes".
	measure
)

// sourceKeys carry Python source or raw tool arguments.
var sourceKeys = map[string]bool{
	"removestar.source": true,
	"removestar.code":   true,
	"mcp.arguments":     true,
}

var exportedNamespaces = []string{"removestar.", "mcp.", "lsp.", "error.", "exception."}

func classify(key string) verdict {
	switch {
	case sourceKeys[key]:
		return measure
	case key == "error":
		return keep
	}

	for _, ns := range exportedNamespaces {
		if strings.HasPrefix(key, ns) {
			return keep
		}
	}

	return drop
}

// redactor is a SpanProcessor that rewrites span attributes before they
// reach the exporter. Source text is reduced to its length and keys outside
// the removestar namespaces are dropped.
type redactor struct {
	next   sdktrace.SpanProcessor
	logger *slog.Logger
}

// NewRedactor wraps next. A non-nil logger receives a warning for every
// dropped key.
func NewRedactor(next sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &redactor{next: next, logger: logger}
}

func (r *redactor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	r.next.OnStart(parent, s)
}

func (r *redactor) OnEnd(s sdktrace.ReadOnlySpan) {
	r.next.OnEnd(redactedSpan{ReadOnlySpan: s, attrs: r.redact(s.Name(), s.Attributes())})
}

func (r *redactor) Shutdown(ctx context.Context) error {
	if err := r.next.Shutdown(ctx); err != nil {
		return fmt.Errorf("redactor shutdown: %w", err)
	}

	return nil
}

func (r *redactor) ForceFlush(ctx context.Context) error {
	if err := r.next.ForceFlush(ctx); err != nil {
		return fmt.Errorf("redactor flush: %w", err)
	}

	return nil
}

func (r *redactor) redact(span string, attrs []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		key := string(kv.Key)

		switch classify(key) {
		case keep:
			out = append(out, kv)
		case measure:
			out = append(out, attribute.Int(key+".bytes", len(kv.Value.Emit())))
		case drop:
			if r.logger != nil {
				r.logger.Warn("span attribute dropped", "span", span, "key", key)
			}
		}
	}

	return out
}

// redactedSpan overrides the attributes of a finished span.
type redactedSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s redactedSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
