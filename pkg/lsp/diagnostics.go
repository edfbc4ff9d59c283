package lsp

import (
	"errors"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
)

// Diagnostic codes.
const (
	CodeStarImport = "star-import"
	CodeError      = "error"
)

const diagnosticSource = "removestar"

func newDiagnostic(rng protocol.Range, severity protocol.DiagnosticSeverity, code, message string) protocol.Diagnostic {
	source := diagnosticSource

	return protocol.Diagnostic{
		Range:    rng,
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: code},
		Source:   &source,
		Message:  message,
	}
}

// resultDiagnostics reports every star import with its replacement, followed
// by the fixer's warnings.
func resultDiagnostics(text string, result *removestar.Result) []protocol.Diagnostic {
	doc := splitDocument(text)
	out := make([]protocol.Diagnostic, 0, len(result.Wildcards)+len(result.Diagnostics))

	for _, wildcard := range result.Wildcards {
		names, _ := result.Attribution.Lookup(wildcard.Module)

		out = append(out, newDiagnostic(doc.toEndOfLine(wildcard.Location),
			protocol.DiagnosticSeverityWarning, CodeStarImport, wildcardMessage(wildcard, names)))
	}

	for _, d := range result.Warnings() {
		out = append(out, newDiagnostic(doc.word(d.Location, d.Name),
			protocol.DiagnosticSeverityWarning, string(d.Kind), d.Message))
	}

	return out
}

func wildcardMessage(wildcard pyscope.Wildcard, names []string) string {
	star := fmt.Sprintf("from %s import *", wildcard.Module)

	if len(names) == 0 {
		return fmt.Sprintf("'%s' is unused and can be removed", star)
	}

	return fmt.Sprintf("'%s' can be replaced with '%s'", star, removestar.FormatImport(wildcard.Module, names, 0))
}

// errorDiagnostic reports a failed fix at the syntax error, or at the top of
// the document when the error has no location.
func errorDiagnostic(doc lines, err error) protocol.Diagnostic {
	loc := pyscope.Location{Line: 1}

	var syntaxErr *pyast.SyntaxError
	if errors.As(err, &syntaxErr) {
		loc = pyscope.Location{Line: syntaxErr.Line, Column: syntaxErr.Column}
	}

	return newDiagnostic(doc.toEndOfLine(loc), protocol.DiagnosticSeverityError, CodeError, err.Error())
}

// ownDiagnostics filters the diagnostics published by this server.
func ownDiagnostics(diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	var out []protocol.Diagnostic

	for _, d := range diagnostics {
		if d.Source != nil && *d.Source == diagnosticSource {
			out = append(out, d)
		}
	}

	return out
}
