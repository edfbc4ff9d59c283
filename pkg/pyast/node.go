package pyast

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Text returns the source text spanned by n.
func Text(n sitter.Node, src []byte) string {
	if n.IsNull() {
		return ""
	}

	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(src)) || start > end {
		return ""
	}

	return string(src[start:end])
}

// Position returns the 1-based line and 0-based byte column of n.
func Position(n sitter.Node) (line, col int) {
	pt := n.StartPoint()

	return int(pt.Row) + 1, int(pt.Column) //nolint:gosec // tree-sitter coordinates fit in int
}

// Children returns all children of n, named and anonymous, in source order.
func Children(n sitter.Node) []sitter.Node {
	count := n.ChildCount()
	out := make([]sitter.Node, 0, count)

	for i := range count {
		out = append(out, n.Child(i))
	}

	return out
}

// NamedChildren returns the named children of n in source order.
func NamedChildren(n sitter.Node) []sitter.Node {
	count := n.NamedChildCount()
	out := make([]sitter.Node, 0, count)

	for i := range count {
		child := n.NamedChild(i)
		if !child.IsNull() {
			out = append(out, child)
		}
	}

	return out
}

// Field returns the child stored under the given field name.
func Field(n sitter.Node, name string) (sitter.Node, bool) {
	child := n.ChildByFieldName(name)
	if child.IsNull() {
		return child, false
	}

	return child, true
}

// FirstNamedOfType returns the first named child of n with the given type.
func FirstNamedOfType(n sitter.Node, typ string) (sitter.Node, bool) {
	for _, child := range NamedChildren(n) {
		if child.Type() == typ {
			return child, true
		}
	}

	return sitter.Node{}, false
}

// HasChildOfType reports whether n has a direct child (named or anonymous)
// of the given type.
func HasChildOfType(n sitter.Node, typ string) bool {
	for _, child := range Children(n) {
		if child.Type() == typ {
			return true
		}
	}

	return false
}

// StringValue returns the literal value of a plain string node. The second
// result is false for f-strings, byte strings and anything that is not a
// single string literal.
func StringValue(n sitter.Node, src []byte) (string, bool) {
	if n.Type() == "concatenated_string" {
		var sb strings.Builder

		for _, part := range NamedChildren(n) {
			value, ok := StringValue(part, src)
			if !ok {
				return "", false
			}

			sb.WriteString(value)
		}

		return sb.String(), true
	}

	if n.Type() != "string" {
		return "", false
	}

	var (
		sb         strings.Builder
		sawContent bool
	)

	for _, child := range NamedChildren(n) {
		switch child.Type() {
		case "string_start":
			if strings.ContainsAny(strings.ToLower(Text(child, src)), "fb") {
				return "", false
			}
		case "string_content", "escape_sequence":
			sawContent = true

			sb.WriteString(Text(child, src))
		case "string_end":
		default:
			// Interpolations and anything unexpected make the value dynamic.
			return "", false
		}
	}

	if sawContent {
		return sb.String(), true
	}

	return unquote(Text(n, src))
}

// unquote strips a prefix and matching quotes from a raw string literal. It
// is the fallback for grammars that do not expose string_content nodes.
func unquote(raw string) (string, bool) {
	body := strings.TrimLeft(raw, "rRuUfFbB")
	if strings.ContainsAny(raw[:len(raw)-len(body)], "fFbB") {
		return "", false
	}

	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(quote) && strings.HasPrefix(body, quote) && strings.HasSuffix(body, quote) {
			return body[len(quote) : len(body)-len(quote)], true
		}
	}

	return "", false
}
