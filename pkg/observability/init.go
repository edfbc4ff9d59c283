package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "removestar"

// Providers holds the initialized observability providers.
type Providers struct {
	// Tracer starts the removestar spans.
	Tracer trace.Tracer

	// Meter creates RequestMetrics and FixMetrics.
	Meter metric.Meter

	// Logger stamps records with trace and file context.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry. Calls after the first return the
	// first result.
	Shutdown func(ctx context.Context) error
}

// Init sets up tracing, metrics and logging with logs on stderr. Without an
// OTLP endpoint, tracing and metrics are no-ops.
func Init(cfg Config) (Providers, error) {
	return InitWithWriter(cfg, os.Stderr)
}

// InitWithWriter is Init with an explicit log destination.
func InitWithWriter(cfg Config, logOut io.Writer) (Providers, error) {
	logger := NewLogger(cfg, logOut)

	p, err := newPipeline(context.Background(), cfg, logger)
	if err != nil {
		return Providers{}, err
	}

	otel.SetTracerProvider(p.traces)
	otel.SetMeterProvider(p.metrics)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return Providers{
		Tracer:   p.traces.Tracer(instrumentationName),
		Meter:    p.metrics.Meter(instrumentationName),
		Logger:   logger,
		Shutdown: p.shutdownOnce(cfg.shutdownTimeout()),
	}, nil
}

type stopFunc func(ctx context.Context) error

// pipeline is the pair of providers plus what must be stopped on exit.
type pipeline struct {
	traces  trace.TracerProvider
	metrics metric.MeterProvider
	stops   []stopFunc
}

func newPipeline(ctx context.Context, cfg Config, logger *slog.Logger) (*pipeline, error) {
	if cfg.Export.Endpoint == "" {
		return &pipeline{
			traces:  nooptrace.NewTracerProvider(),
			metrics: noopmetric.NewMeterProvider(),
		}, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	spans, err := otlptracegrpc.New(ctx, traceExporterOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	points, err := otlpmetricgrpc.New(ctx, metricExporterOptions(cfg)...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create metric exporter: %w", err), spans.Shutdown(ctx))
	}

	// Dropped attributes are only reported when tracing is being debugged.
	var redactLog *slog.Logger
	if cfg.DebugTrace {
		redactLog = logger
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewRedactor(sdktrace.NewBatchSpanProcessor(spans), redactLog)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg)),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points)),
		sdkmetric.WithResource(res),
	)

	return &pipeline{traces: tp, metrics: mp, stops: []stopFunc{tp.Shutdown, mp.Shutdown}}, nil
}

// shutdownOnce stops every provider in reverse order, bounded by timeout.
func (p *pipeline) shutdownOnce(timeout time.Duration) func(ctx context.Context) error {
	var (
		once sync.Once
		err  error
	)

	return func(ctx context.Context) error {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			var errs []error
			for _, stop := range slices.Backward(p.stops) {
				errs = append(errs, stop(ctx))
			}

			err = errors.Join(errs...)
		})

		return err
	}
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func traceExporterOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Export.Endpoint)}
	if cfg.Export.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.Export.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Export.Headers))
	}

	return opts
}

func metricExporterOptions(cfg Config) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Export.Endpoint)}
	if cfg.Export.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.Export.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Export.Headers))
	}

	return opts
}

// newSampler samples everything when debugging, SampleRatio of root traces
// when it is set and otherwise follows the parent, sampling new roots.
func newSampler(cfg Config) sdktrace.Sampler {
	if cfg.DebugTrace {
		return sdktrace.AlwaysSample()
	}

	root := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		root = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}

	return sdktrace.ParentBased(root)
}
