package removestar

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLineLength is the line length above which replacement imports wrap.
const DefaultMaxLineLength = 100

// StarImportPattern matches "from <module> import *" with any run of spaces
// between the tokens.
func StarImportPattern(module string) *regexp.Regexp {
	return regexp.MustCompile(`from +` + regexp.QuoteMeta(module) + ` +import +\*`)
}

// FormatImport renders the explicit import replacing a star import of
// module. names must be sorted. No names yields the empty string. The
// import wraps only when the single-line form without its last name is
// longer than maxLineLength (and maxLineLength is positive). Wrapped names
// are appended one at a time and a line breaks as soon as it runs past the
// maximum, so the name that overflows stays on that line. Continuation lines
// align under the opening parenthesis.
func FormatImport(module string, names []string, maxLineLength int) string {
	if len(names) == 0 {
		return ""
	}

	prefix := "from " + module + " import "

	single := prefix + strings.Join(names, ", ")
	last := names[len(names)-1]

	if maxLineLength <= 0 || utf8.RuneCountInString(single)-utf8.RuneCountInString(last) <= maxLineLength {
		return single
	}

	prefix += "("
	indent := strings.Repeat(" ", utf8.RuneCountInString(prefix))

	var (
		lines []string
		line  strings.Builder
	)

	line.WriteString(prefix)

	for i, name := range names {
		if i == len(names)-1 {
			line.WriteString(name + ")")

			break
		}

		line.WriteString(name + ", ")

		if utf8.RuneCountInString(line.String()) > maxLineLength {
			lines = append(lines, strings.TrimRight(line.String(), " "))

			line.Reset()
			line.WriteString(indent)
		}
	}

	lines = append(lines, line.String())

	return strings.Join(lines, "\n")
}

// ReplaceImports substitutes every star import in code according to the
// attribution. It returns the new code and the modules whose star import
// statement could not be matched.
func ReplaceImports(code string, attribution Attribution, maxLineLength int) (string, []string) {
	var missing []string

	for _, entry := range attribution {
		replacement := FormatImport(entry.Module, entry.Names, maxLineLength)
		pattern := StarImportPattern(entry.Module)

		if !pattern.MatchString(code) {
			missing = append(missing, entry.Module)

			continue
		}

		code = pattern.ReplaceAllLiteralString(code, replacement)
	}

	return code, missing
}
