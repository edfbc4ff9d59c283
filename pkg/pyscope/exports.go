package pyscope

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

// exportList tracks the module-level value of __all__ across assignments,
// augmented assignments and extend/append calls.
type exportList struct {
	names   []string
	defined bool
	dynamic bool
	at      Location
}

func (e *exportList) touch(at Location) {
	if !e.defined {
		e.at = at
	}

	e.defined = true
}

func (e *exportList) assign(value sitter.Node, src []byte, at Location) {
	e.touch(at)

	names, ok := literalNames(value, src)
	if !ok {
		e.dynamic = true

		return
	}

	e.names = names
	e.dynamic = false
}

func (e *exportList) extend(value sitter.Node, src []byte, at Location) {
	e.touch(at)

	names, ok := literalNames(value, src)
	if !ok {
		e.dynamic = true

		return
	}

	e.names = append(e.names, names...)
}

func (e *exportList) appendOne(value sitter.Node, src []byte, at Location) {
	e.touch(at)

	name, ok := pyast.StringValue(value, src)
	if !ok {
		e.dynamic = true

		return
	}

	e.names = append(e.names, name)
}

// static returns the literal names and whether __all__ is fully known.
func (e *exportList) static() ([]string, bool) {
	if !e.defined || e.dynamic {
		return nil, false
	}

	return e.names, true
}

// literalNames evaluates a list or tuple of string literals, optionally
// concatenated with "+".
func literalNames(n sitter.Node, src []byte) ([]string, bool) {
	switch n.Type() {
	case "list", "tuple":
		names := make([]string, 0, n.NamedChildCount())

		for _, item := range pyast.NamedChildren(n) {
			if item.Type() == "comment" {
				continue
			}

			value, ok := pyast.StringValue(item, src)
			if !ok {
				return nil, false
			}

			names = append(names, value)
		}

		return names, true
	case "parenthesized_expression":
		inner := pyast.NamedChildren(n)
		if len(inner) != 1 {
			return nil, false
		}

		return literalNames(inner[0], src)
	case "binary_operator":
		op, hasOp := pyast.Field(n, "operator")
		left, hasLeft := pyast.Field(n, "left")
		right, hasRight := pyast.Field(n, "right")

		if !hasOp || !hasLeft || !hasRight || op.Type() != "+" {
			return nil, false
		}

		head, ok := literalNames(left, src)
		if !ok {
			return nil, false
		}

		tail, ok := literalNames(right, src)
		if !ok {
			return nil, false
		}

		return append(head, tail...), true
	default:
		return nil, false
	}
}
