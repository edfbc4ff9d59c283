package pyscope

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

// visitAnnotation walks a type annotation. String literals inside it are
// forward references and are parsed as expressions.
func (c *checker) visitAnnotation(n sitter.Node) {
	c.inAnnotation++
	c.visitChildren(n)
	c.inAnnotation--
}

// visitSubscript skips the arguments of Literal[...] inside annotations,
// whose strings are values rather than references.
func (c *checker) visitSubscript(n sitter.Node) {
	value, ok := pyast.Field(n, "value")
	if !ok {
		// generic_type has no fields: the subscripted name comes first.
		if children := pyast.NamedChildren(n); len(children) > 0 {
			value, ok = children[0], true
		}
	}

	if ok && c.inAnnotation > 0 && isLiteralType(c.text(value)) {
		c.visit(value)

		return
	}

	c.visitChildren(n)
}

func isLiteralType(name string) bool {
	return name == "Literal" || strings.HasSuffix(name, ".Literal")
}

func (c *checker) visitString(n sitter.Node) {
	if c.inAnnotation > 0 {
		if value, ok := pyast.StringValue(n, c.src); ok {
			c.visitStringAnnotation(value, n)

			return
		}
	}

	c.visitChildren(n)
}

// visitStringAnnotation parses a forward reference and loads the names it
// mentions. Usages found inside report the position of the string itself.
func (c *checker) visitStringAnnotation(value string, at sitter.Node) {
	expr := strings.TrimSpace(value)
	if expr == "" {
		return
	}

	tree, err := pyast.Parse(c.ctx, []byte(expr))
	if err != nil {
		return
	}

	defer tree.Close()

	stmts := pyast.NamedChildren(tree.Root)
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return
	}

	exprs := pyast.NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return
	}

	switch exprs[0].Type() {
	case "assignment", "augmented_assignment", "named_expression":
		return
	}

	savedSrc, savedAnchor, savedFlag := c.src, c.anchor, c.inStringAnnotation

	if c.anchor == nil {
		loc := c.locate(at)
		c.anchor = &loc
	}

	c.src = tree.Source
	c.inStringAnnotation = true

	c.visit(exprs[0])

	c.src, c.anchor, c.inStringAnnotation = savedSrc, savedAnchor, savedFlag
}

func (c *checker) visitMatch(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		if child.Type() != "block" {
			c.visit(child)

			continue
		}

		for _, clause := range pyast.NamedChildren(child) {
			if clause.Type() == "case_clause" {
				c.visitCase(clause)
			} else {
				c.visit(clause)
			}
		}
	}
}

func (c *checker) visitCase(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		if child.Type() == "case_pattern" {
			c.visitPattern(child)
		} else {
			c.visit(child)
		}
	}
}

// visitPattern binds capture names and loads value patterns such as
// Color.RED or the class in Point(x=0).
func (c *checker) visitPattern(n sitter.Node) {
	switch n.Type() {
	case "identifier":
		if name := c.text(n); name != "_" {
			c.bind(name)
		}
	case "dotted_name":
		parts := pyast.NamedChildren(n)
		if len(parts) == 1 {
			c.visitPattern(parts[0])
		} else if len(parts) > 1 {
			c.visit(parts[0])
		}
	case "as_pattern":
		alias, hasAlias := pyast.Field(n, "alias")

		for _, child := range pyast.NamedChildren(n) {
			if hasAlias && sameNode(child, alias) {
				continue
			}

			c.visitPattern(child)
		}

		if hasAlias {
			c.bindTarget(alias)
		}
	case "class_pattern":
		for i, child := range pyast.NamedChildren(n) {
			if i == 0 && child.Type() == "dotted_name" {
				c.visit(child)

				continue
			}

			c.visitPattern(child)
		}
	case "keyword_pattern":
		for i, child := range pyast.NamedChildren(n) {
			if i == 0 && child.Type() == "identifier" {
				continue
			}

			c.visitPattern(child)
		}
	case "string", "concatenated_string", "integer", "float", "true", "false", "none",
		"complex_pattern", "comment":
		return
	default:
		for _, child := range pyast.NamedChildren(n) {
			c.visitPattern(child)
		}
	}
}
