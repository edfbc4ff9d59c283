// Package removestar replaces Python star imports with explicit imports of
// the names a module actually uses.
//
// A fix runs in four steps: the importing module is analyzed for star
// imports and the unbound names they may supply, every star-imported module
// is resolved to its export set, each used name is attributed to exactly one
// module and finally the star import statements are rewritten in place.
package removestar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

const tracerName = "removestar"

// Options configure a Fixer.
type Options struct {
	// MaxLineLength wraps replacement imports longer than this. Zero disables wrapping.
	MaxLineLength int
	// Verbose adds a KindReplaced diagnostic for every rewritten star import.
	Verbose bool
	// AllowDynamic resolves absolute modules by importing them with Python.
	AllowDynamic bool
	// Python is the interpreter used for dynamic imports.
	Python string
	// DynamicTimeout bounds each dynamic import.
	DynamicTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
	// Metrics is optional.
	Metrics *observability.FixMetrics
}

// DefaultOptions returns the options the command line uses by default.
func DefaultOptions() Options {
	return Options{
		MaxLineLength:  DefaultMaxLineLength,
		Python:         DefaultPython,
		DynamicTimeout: DefaultDynamicTimeout,
	}
}

// Result is the outcome of fixing one file.
type Result struct {
	Filename    string             `json:"filename"`
	Original    string             `json:"-"`
	Source      string             `json:"source"`
	Wildcards   []pyscope.Wildcard `json:"wildcards"`
	Attribution Attribution        `json:"attribution"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
}

// Changed reports whether the fix modified the source.
func (r *Result) Changed() bool {
	return r.Source != r.Original
}

// Warnings returns the diagnostics that are warnings.
func (r *Result) Warnings() []Diagnostic {
	var out []Diagnostic

	for _, d := range r.Diagnostics {
		if d.IsWarning() {
			out = append(out, d)
		}
	}

	return out
}

// Fixer rewrites star imports. It is safe for concurrent use; every call
// resolves modules with its own cache.
type Fixer struct {
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
	importer *DynamicImporter
}

// NewFixer creates a Fixer.
func NewFixer(opts Options) *Fixer {
	fixer := &Fixer{
		opts:   opts,
		logger: opts.Logger,
		tracer: opts.Tracer,
	}

	if fixer.logger == nil {
		fixer.logger = slog.Default()
	}

	if fixer.tracer == nil {
		fixer.tracer = otel.Tracer(tracerName)
	}

	if opts.AllowDynamic {
		fixer.importer = NewDynamicImporter(opts.Python, opts.DynamicTimeout)
	}

	return fixer
}

// Fix rewrites the star imports of code. directory is where relative
// modules are resolved from; filename labels diagnostics.
func (f *Fixer) Fix(ctx context.Context, code, directory, filename string) (*Result, error) {
	start := time.Now()
	ctx = observability.WithFile(ctx, filename)

	ctx, span := f.tracer.Start(ctx, "removestar.fix",
		trace.WithAttributes(attribute.String("removestar.file", filename)))
	defer span.End()

	result, err := f.fix(ctx, code, directory, filename)

	stats := observability.FixStats{Duration: time.Since(start), Failed: err != nil}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.opts.Metrics.RecordFix(ctx, stats)

		return nil, err
	}

	stats.Changed = result.Changed()
	stats.Names = result.Attribution.Count()
	stats.Diagnostics = countKinds(result.Diagnostics)
	f.opts.Metrics.RecordFix(ctx, stats)

	span.SetAttributes(
		attribute.Int("removestar.wildcards", len(result.Wildcards)),
		attribute.Int("removestar.names", stats.Names),
		attribute.Bool("removestar.changed", stats.Changed),
	)

	f.logger.DebugContext(ctx, "fixed file",
		"wildcards", len(result.Wildcards),
		"names", stats.Names,
		"changed", stats.Changed,
		"duration", stats.Duration)

	return result, nil
}

func (f *Fixer) fix(ctx context.Context, code, directory, filename string) (*Result, error) {
	report, err := pyscope.AnalyzeSource(ctx, []byte(code), pyscope.Options{Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	result := &Result{
		Filename:    filename,
		Original:    code,
		Source:      code,
		Wildcards:   report.Wildcards,
		Attribution: Attribution{},
		Diagnostics: []Diagnostic{},
	}

	if len(report.Wildcards) == 0 {
		return result, nil
	}

	res := newResolver(directory, f.importer, f.tracer, f.logger)
	exports := make(map[string]NameSet, len(report.Wildcards))

	for _, wildcard := range report.Wildcards {
		names, resolveErr := res.resolve(ctx, wildcard.Module)
		if resolveErr != nil {
			return nil, resolveErr
		}

		exports[wildcard.Module] = names
	}

	attribution, diags := Attribute(filename, report.WildcardModules(), report.Usages, exports)

	fixed, missing := ReplaceImports(code, attribution, f.opts.MaxLineLength)

	for _, wildcard := range report.Wildcards {
		if slices.Contains(missing, wildcard.Module) {
			diags = append(diags, notFoundDiagnostic(filename, wildcard))

			continue
		}

		if f.opts.Verbose {
			names, _ := attribution.Lookup(wildcard.Module)
			diags = append(diags, replacedDiagnostic(filename, wildcard,
				FormatImport(wildcard.Module, names, f.opts.MaxLineLength)))
		}
	}

	result.Source = fixed
	result.Attribution = attribution

	if diags != nil {
		result.Diagnostics = diags
	}

	for _, d := range result.Warnings() {
		f.logger.DebugContext(ctx, "diagnostic", "kind", string(d.Kind), "message", d.Message)
	}

	return result, nil
}

// FixFile reads path and fixes it, resolving relative modules from the
// file's directory.
func (f *Fixer) FixFile(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return f.Fix(ctx, string(content), filepath.Dir(path), path)
}

// FixCode is a convenience wrapper around NewFixer(opts).Fix.
func FixCode(ctx context.Context, code, directory, filename string, opts Options) (*Result, error) {
	return NewFixer(opts).Fix(ctx, code, directory, filename)
}

func countKinds(diags []Diagnostic) map[string]int64 {
	counts := make(map[string]int64)
	for _, d := range diags {
		counts[string(d.Kind)]++
	}

	return counts
}
