package removestar

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

// DiagnosticKind classifies a non-fatal finding.
type DiagnosticKind string

// Diagnostic kinds.
const (
	// KindUnresolved: a used name is exported by none of its candidate modules.
	KindUnresolved DiagnosticKind = "unresolved"
	// KindAmbiguous: a used name is exported by several modules; the last one wins.
	KindAmbiguous DiagnosticKind = "ambiguous"
	// KindNotFound: a star import statement could not be matched textually.
	KindNotFound DiagnosticKind = "not-found"
	// KindReplaced: informational record of a rewrite, emitted in verbose mode.
	KindReplaced DiagnosticKind = "replaced"
)

// Diagnostic is a warning or informational message about one file.
type Diagnostic struct {
	Kind       DiagnosticKind   `json:"kind"`
	Filename   string           `json:"filename"`
	Name       string           `json:"name,omitempty"`
	Module     string           `json:"module,omitempty"`
	Candidates []string         `json:"candidates,omitempty"`
	Location   pyscope.Location `json:"location"`
	Message    string           `json:"message"`
}

// IsWarning reports whether the diagnostic is a warning rather than information.
func (d Diagnostic) IsWarning() bool {
	return d.Kind != KindReplaced
}

// String formats the diagnostic the way the CLI prints it.
func (d Diagnostic) String() string {
	if !d.IsWarning() {
		return fmt.Sprintf("%s: %s", d.Filename, d.Message)
	}

	return fmt.Sprintf("Warning: %s: %s", d.Filename, d.Message)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}

	return strings.Join(quoted, ", ")
}

func unresolvedDiagnostic(filename string, usage pyscope.Usage) Diagnostic {
	return Diagnostic{
		Kind:       KindUnresolved,
		Filename:   filename,
		Name:       usage.Name,
		Candidates: usage.Modules,
		Location:   usage.Location,
		Message:    fmt.Sprintf("could not find import for '%s'", usage.Name),
	}
}

func ambiguousDiagnostic(filename string, usage pyscope.Usage, modules []string) Diagnostic {
	chosen := modules[len(modules)-1]

	return Diagnostic{
		Kind:       KindAmbiguous,
		Filename:   filename,
		Name:       usage.Name,
		Module:     chosen,
		Candidates: modules,
		Location:   usage.Location,
		Message: fmt.Sprintf("'%s' comes from multiple modules: %s. Using '%s'.",
			usage.Name, quoteList(modules), chosen),
	}
}

func notFoundDiagnostic(filename string, wildcard pyscope.Wildcard) Diagnostic {
	return Diagnostic{
		Kind:     KindNotFound,
		Filename: filename,
		Module:   wildcard.Module,
		Location: wildcard.Location,
		Message:  fmt.Sprintf("could not find the star imports for '%s'", wildcard.Module),
	}
}

func replacedDiagnostic(filename string, wildcard pyscope.Wildcard, replacement string) Diagnostic {
	return Diagnostic{
		Kind:     KindReplaced,
		Filename: filename,
		Module:   wildcard.Module,
		Location: wildcard.Location,
		Message: fmt.Sprintf("Replacing 'from %s import *' with '%s'",
			wildcard.Module, strings.Join(strings.Fields(replacement), " ")),
	}
}
