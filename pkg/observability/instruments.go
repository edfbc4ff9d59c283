package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// latencyBuckets spans 1ms to 60s. Most files fix in milliseconds; a dynamic
// import of a heavy package can take seconds.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// instrumentSet creates instruments from one meter and collects the first
// error per instrument, so constructors check once at the end.
type instrumentSet struct {
	meter metric.Meter
	errs  []error
}

func (s *instrumentSet) record(name string, err error) {
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("create %s: %w", name, err))
	}
}

func (s *instrumentSet) counter(name, description, unit string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	s.record(name, err)

	return c
}

func (s *instrumentSet) upDown(name, description, unit string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	s.record(name, err)

	return c
}

func (s *instrumentSet) seconds(name, description string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	s.record(name, err)

	return h
}

func (s *instrumentSet) err() error {
	return errors.Join(s.errs...)
}
