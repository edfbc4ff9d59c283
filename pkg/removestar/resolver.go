package removestar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

const (
	pythonExt   = ".py"
	packageInit = "__init__.py"
)

// NameSet is the set of names a module exports through a star import.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from a list of names.
func NewNameSet(names []string) NameSet {
	set := make(NameSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// SplitRelative returns the number of leading dots of a module reference and
// the dotted remainder.
func SplitRelative(module string) (level int, rest string) {
	rest = strings.TrimLeft(module, ".")

	return len(module) - len(rest), rest
}

// LocateModule finds the source file of a relative module reference. One dot
// is the directory itself and every further dot ascends one level. The remainder
// is tried as a module file first and as a package second.
func LocateModule(module, directory string) (string, error) {
	level, rest := SplitRelative(module)
	if level == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotImplemented, module)
	}

	base := directory
	for range level - 1 {
		base = filepath.Join(base, "..")
	}

	loc := base
	if rest != "" {
		loc = filepath.Join(append([]string{base}, strings.Split(rest, ".")...)...)

		if isFile(loc + pythonExt) {
			return loc + pythonExt, nil
		}
	}

	initFile := filepath.Join(loc, packageInit)
	if isFile(initFile) {
		return initFile, nil
	}

	return "", fmt.Errorf("%w: could not find the file for the module %s", ErrModuleNotFound, module)
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// ModuleNames parses a Python file and returns the names a star import of it
// provides.
func ModuleNames(ctx context.Context, path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModuleNotFound, path, err)
	}

	report, err := pyscope.AnalyzeSource(ctx, src, pyscope.Options{Filename: path})
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrModuleParse, path, err) //nolint:errorlint // keep kinds distinct.
	}

	return report.Exports(), nil
}

// resolver maps star-imported modules to their export sets. It is created
// per fix run, so the cache never outlives one file.
type resolver struct {
	directory string
	importer  *DynamicImporter
	tracer    trace.Tracer
	logger    *slog.Logger
	cache     map[string]NameSet
}

func newResolver(directory string, importer *DynamicImporter, tracer trace.Tracer, logger *slog.Logger) *resolver {
	return &resolver{
		directory: directory,
		importer:  importer,
		tracer:    tracer,
		logger:    logger,
		cache:     make(map[string]NameSet),
	}
}

func (r *resolver) resolve(ctx context.Context, module string) (NameSet, error) {
	if names, ok := r.cache[module]; ok {
		return names, nil
	}

	ctx, span := r.tracer.Start(ctx, "removestar.resolve",
		trace.WithAttributes(attribute.String("removestar.module", module)))
	defer span.End()

	names, err := r.lookup(ctx, module)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("removestar.names", len(names)))

	set := NewNameSet(names)
	r.cache[module] = set

	return set, nil
}

func (r *resolver) lookup(ctx context.Context, module string) ([]string, error) {
	level, _ := SplitRelative(module)
	if level == 0 {
		if r.importer == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotImplemented, module)
		}

		r.logger.DebugContext(ctx, "importing module dynamically", "module", module, "directory", r.directory)

		return r.importer.Names(ctx, module, r.directory)
	}

	path, err := LocateModule(module, r.directory)
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "resolved module", "module", module, "path", path)

	return ModuleNames(ctx, path)
}
