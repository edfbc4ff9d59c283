package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewResourceForTest exposes newResource.
func NewResourceForTest(cfg Config) (*resource.Resource, error) {
	return newResource(context.Background(), cfg)
}

// SampledForTest reports whether the sampler for cfg keeps a span started
// under parent.
func SampledForTest(cfg Config, parent trace.SpanContext) bool {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(newSampler(cfg)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx := context.Background()
	if parent.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
	}

	_, span := tp.Tracer("sampler").Start(ctx, "sampled")
	defer span.End()

	return span.SpanContext().IsSampled()
}
