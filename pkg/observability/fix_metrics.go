package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFiles       = "removestar.files.total"
	metricFilesEdited = "removestar.files.changed.total"
	metricNames       = "removestar.names.total"
	metricDiagnostics = "removestar.diagnostics.total"
	metricFixLatency  = "removestar.fix.duration.seconds"

	attrKind    = "kind"
	attrOutcome = "outcome"
)

// FixMetrics holds the instruments recorded once per fixed file.
type FixMetrics struct {
	files       metric.Int64Counter
	edited      metric.Int64Counter
	names       metric.Int64Counter
	diagnostics metric.Int64Counter
	latency     metric.Float64Histogram
}

// FixStats describes one file fix, decoupled from the fixer's types.
type FixStats struct {
	Changed bool
	Failed  bool
	// Names is the number of names written into explicit imports.
	Names int
	// Diagnostics counts diagnostics by kind.
	Diagnostics map[string]int64
	Duration    time.Duration
}

// NewFixMetrics creates the fix instruments from mt.
func NewFixMetrics(mt metric.Meter) (*FixMetrics, error) {
	set := &instrumentSet{meter: mt}

	fm := &FixMetrics{
		files:       set.counter(metricFiles, "Files processed, by outcome", "{file}"),
		edited:      set.counter(metricFilesEdited, "Files whose star imports were rewritten", "{file}"),
		names:       set.counter(metricNames, "Names attributed to explicit imports", "{name}"),
		diagnostics: set.counter(metricDiagnostics, "Diagnostics emitted, by kind", "{diagnostic}"),
		latency:     set.seconds(metricFixLatency, "Per-file fix duration in seconds"),
	}

	if err := set.err(); err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordFix records the statistics of one file. A nil receiver records nothing.
func (fm *FixMetrics) RecordFix(ctx context.Context, stats FixStats) {
	if fm == nil {
		return
	}

	outcome := metric.WithAttributes(attribute.String(attrOutcome, "fixed"))
	if stats.Failed {
		outcome = metric.WithAttributes(attribute.String(attrOutcome, "failed"))
	}

	fm.files.Add(ctx, 1, outcome)
	fm.latency.Record(ctx, stats.Duration.Seconds(), outcome)

	if stats.Failed {
		return
	}

	if stats.Changed {
		fm.edited.Add(ctx, 1)
	}

	fm.names.Add(ctx, int64(stats.Names))

	for kind, count := range stats.Diagnostics {
		fm.diagnostics.Add(ctx, count, metric.WithAttributes(attribute.String(attrKind, kind)))
	}
}
