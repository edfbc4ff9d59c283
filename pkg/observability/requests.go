package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequests        = "removestar.requests.total"
	metricRequestFailures = "removestar.errors.total"
	metricRequestLatency  = "removestar.request.duration.seconds"
	metricRequestsActive  = "removestar.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	statusOK     = "ok"
	statusFailed = "error"
)

// RequestMetrics counts requests served by the long-running modes: MCP tool
// calls and LSP code actions.
type RequestMetrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewRequestMetrics creates the request instruments from mt.
func NewRequestMetrics(mt metric.Meter) (*RequestMetrics, error) {
	set := &instrumentSet{meter: mt}

	rm := &RequestMetrics{
		requests: set.counter(metricRequests, "Requests served, by operation and status", "{request}"),
		failures: set.counter(metricRequestFailures, "Requests that failed, by operation", "{request}"),
		latency:  set.seconds(metricRequestLatency, "Request latency in seconds"),
		active:   set.upDown(metricRequestsActive, "Requests currently being served", "{request}"),
	}

	if err := set.err(); err != nil {
		return nil, err
	}

	return rm, nil
}

// Begin marks a request for op as in flight and returns the function that
// completes it. A nil receiver records nothing.
func (rm *RequestMetrics) Begin(ctx context.Context, op string) func(failed bool) {
	if rm == nil {
		return func(bool) {}
	}

	start := time.Now()
	opAttr := attribute.String(attrOp, op)

	rm.active.Add(ctx, 1, metric.WithAttributes(opAttr))

	return func(failed bool) {
		rm.active.Add(ctx, -1, metric.WithAttributes(opAttr))

		status := statusOK
		if failed {
			status = statusFailed

			rm.failures.Add(ctx, 1, metric.WithAttributes(opAttr))
		}

		attrs := metric.WithAttributes(opAttr, attribute.String(attrStatus, status))
		rm.requests.Add(ctx, 1, attrs)
		rm.latency.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
