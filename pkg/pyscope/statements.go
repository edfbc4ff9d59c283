package pyscope

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

func sameNode(a, b sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (c *checker) visitImport(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		switch child.Type() {
		case "dotted_name":
			// "import a.b.c" binds "a".
			if first, ok := pyast.FirstNamedOfType(child, "identifier"); ok {
				c.bind(c.text(first))
			}
		case "aliased_import":
			if alias, ok := pyast.Field(child, "alias"); ok {
				c.bind(c.text(alias))
			}
		}
	}
}

func (c *checker) visitImportFrom(n sitter.Node) {
	module, ok := pyast.Field(n, "module_name")
	if !ok {
		return
	}

	if pyast.HasChildOfType(n, "wildcard_import") {
		c.addWildcard(module, n)

		return
	}

	for _, child := range pyast.NamedChildren(n) {
		if sameNode(child, module) {
			continue
		}

		c.bindImported(child)
	}
}

func (c *checker) visitFutureImport(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		c.bindImported(child)
	}
}

func (c *checker) bindImported(n sitter.Node) {
	switch n.Type() {
	case "dotted_name", "identifier":
		c.bind(c.text(n))
	case "aliased_import":
		if alias, ok := pyast.Field(n, "alias"); ok {
			c.bind(c.text(alias))
		}
	}
}

// visitGlobal makes the declared names module bindings and marks them bound
// in every enclosing function so later loads resolve.
func (c *checker) visitGlobal(n sitter.Node) {
	if len(c.stack) == 1 {
		return
	}

	for _, child := range pyast.NamedChildren(n) {
		if child.Type() != "identifier" {
			continue
		}

		name := c.text(child)
		c.module().bindDefault(name)

		for _, s := range c.stack[1:] {
			s.bind(name, bindValue)
		}
	}
}

func (c *checker) visitFunction(n sitter.Node) {
	pushed := c.pushTypeParams(n)

	params, _ := pyast.Field(n, "parameters")
	names := c.visitParameters(params)

	if returns, ok := pyast.Field(n, "return_type"); ok {
		c.visit(returns)
	}

	if body, ok := pyast.Field(n, "body"); ok {
		c.deferBody(FunctionScope, names, func() { c.visit(body) })
	}

	if pushed {
		c.pop()
	}

	if name, ok := pyast.Field(n, "name"); ok {
		c.bind(c.text(name))
	}
}

func (c *checker) visitLambda(n sitter.Node) {
	params, _ := pyast.Field(n, "parameters")
	names := c.visitParameters(params)

	body, ok := pyast.Field(n, "body")
	if !ok || c.inStringAnnotation {
		return
	}

	c.deferBody(FunctionScope, names, func() { c.visit(body) })
}

// visitParameters loads defaults and annotations in the enclosing scope and
// returns the parameter names for the body scope.
func (c *checker) visitParameters(params sitter.Node) []string {
	if params.IsNull() {
		return nil
	}

	var names []string

	for _, param := range pyast.NamedChildren(params) {
		switch param.Type() {
		case "identifier":
			names = append(names, c.text(param))
		case "default_parameter", "typed_default_parameter":
			if annotation, ok := pyast.Field(param, "type"); ok {
				c.visit(annotation)
			}

			if value, ok := pyast.Field(param, "value"); ok {
				c.visit(value)
			}

			if name, ok := pyast.Field(param, "name"); ok {
				names = append(names, c.targetNames(name)...)
			}
		case "typed_parameter":
			for _, child := range pyast.NamedChildren(param) {
				if child.Type() == "type" {
					c.visit(child)

					continue
				}

				names = append(names, c.targetNames(child)...)
			}
		default:
			names = append(names, c.targetNames(param)...)
		}
	}

	return names
}

// targetNames collects the identifiers bound by a parameter or pattern.
func (c *checker) targetNames(n sitter.Node) []string {
	if n.Type() == "identifier" {
		return []string{c.text(n)}
	}

	var names []string
	for _, child := range pyast.NamedChildren(n) {
		names = append(names, c.targetNames(child)...)
	}

	return names
}

func (c *checker) visitClass(n sitter.Node) {
	pushed := c.pushTypeParams(n)

	if bases, ok := pyast.Field(n, "superclasses"); ok {
		c.visit(bases)
	}

	c.push(ClassScope)

	for _, name := range classMagic {
		c.current().bind(name, bindImplicit)
	}

	if body, ok := pyast.Field(n, "body"); ok {
		c.visit(body)
	}

	c.pop()

	if pushed {
		c.pop()
	}

	if name, ok := pyast.Field(n, "name"); ok {
		c.bind(c.text(name))
	}
}

// pushTypeParams opens a type scope for PEP 695 parameters, binding each
// parameter before its bound is loaded.
func (c *checker) pushTypeParams(n sitter.Node) bool {
	params, ok := pyast.Field(n, "type_parameters")
	if !ok {
		return false
	}

	c.push(TypeScope)
	c.bindTypeParams(params)

	return true
}

func (c *checker) bindTypeParams(params sitter.Node) {
	var bounds []sitter.Node

	for _, param := range pyast.NamedChildren(params) {
		node := param
		if inner := pyast.NamedChildren(node); node.Type() == "type" && len(inner) == 1 {
			node = inner[0]
		}

		if node.Type() == "constrained_type" {
			parts := pyast.NamedChildren(node)
			if len(parts) == 0 {
				continue
			}

			c.bindFirstIdentifier(parts[0])
			bounds = append(bounds, parts[1:]...)

			continue
		}

		c.bindFirstIdentifier(node)
	}

	for _, bound := range bounds {
		c.visit(bound)
	}
}

func (c *checker) bindFirstIdentifier(n sitter.Node) {
	if n.Type() == "identifier" {
		c.bind(c.text(n))

		return
	}

	for _, child := range pyast.NamedChildren(n) {
		if child.Type() == "identifier" || child.NamedChildCount() > 0 {
			c.bindFirstIdentifier(child)

			return
		}
	}
}

func (c *checker) visitTypeAlias(n sitter.Node) {
	left, ok := pyast.Field(n, "left")
	if !ok {
		return
	}

	inner := left
	if children := pyast.NamedChildren(left); left.Type() == "type" && len(children) == 1 {
		inner = children[0]
	}

	var (
		params    sitter.Node
		hasParams bool
	)

	if inner.Type() == "generic_type" {
		if name, found := pyast.FirstNamedOfType(inner, "identifier"); found {
			c.bind(c.text(name))
		}

		params, hasParams = pyast.FirstNamedOfType(inner, "type_parameter")
	} else {
		c.bindFirstIdentifier(inner)
	}

	right, ok := pyast.Field(n, "right")
	if !ok {
		return
	}

	c.deferBody(TypeScope, nil, func() {
		if hasParams {
			c.bindTypeParams(params)
		}

		c.visit(right)
	})
}

func (c *checker) visitAssignment(n sitter.Node) {
	left, hasLeft := pyast.Field(n, "left")
	right, hasRight := pyast.Field(n, "right")

	if annotation, ok := pyast.Field(n, "type"); ok {
		c.visit(annotation)

		if !hasRight && hasLeft {
			if left.Type() == "identifier" {
				c.current().bind(c.text(left), bindAnnotation)
			} else {
				c.visit(left)
			}

			return
		}
	}

	if hasRight {
		c.visit(right)
	}

	if !hasLeft {
		return
	}

	c.bindTarget(left)

	if hasRight && c.isModuleAll(left) {
		c.exports.assign(right, c.src, c.locate(n))
	}
}

func (c *checker) visitAugmentedAssignment(n sitter.Node) {
	left, hasLeft := pyast.Field(n, "left")
	right, hasRight := pyast.Field(n, "right")

	if hasLeft {
		c.visit(left)
	}

	if hasRight {
		c.visit(right)
	}

	if !hasLeft {
		return
	}

	c.bindTarget(left)

	if hasRight && c.isModuleAll(left) {
		c.exports.extend(right, c.src, c.locate(n))
	}
}

func (c *checker) isModuleAll(n sitter.Node) bool {
	return c.atModuleLevel() && n.Type() == "identifier" && c.text(n) == "__all__"
}

// visitNamedExpression binds the walrus target in the nearest scope that is
// not a comprehension.
func (c *checker) visitNamedExpression(n sitter.Node) {
	if value, ok := pyast.Field(n, "value"); ok {
		c.visit(value)
	}

	name, ok := pyast.Field(n, "name")
	if !ok {
		return
	}

	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].kind != GeneratorScope {
			c.stack[i].bind(c.text(name), bindValue)

			return
		}
	}
}

func (c *checker) bindTarget(n sitter.Node) {
	switch n.Type() {
	case "identifier":
		c.bind(c.text(n))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list", "expression_list",
		"parenthesized_expression", "as_pattern_target", "list_splat_pattern", "list_splat":
		for _, child := range pyast.NamedChildren(n) {
			c.bindTarget(child)
		}
	case "comment":
	default:
		// Attribute and subscript targets only load their operands.
		c.visit(n)
	}
}

func (c *checker) visitFor(n sitter.Node) {
	if right, ok := pyast.Field(n, "right"); ok {
		c.visit(right)
	}

	if left, ok := pyast.Field(n, "left"); ok {
		c.bindTarget(left)
	}

	if body, ok := pyast.Field(n, "body"); ok {
		c.visit(body)
	}

	if alt, ok := pyast.Field(n, "alternative"); ok {
		c.visit(alt)
	}
}

// visitConditional walks if, elif and while. Everything past the condition
// is a conditional branch, where "del" does not unbind.
func (c *checker) visitConditional(n sitter.Node) {
	cond, hasCond := pyast.Field(n, "condition")
	if hasCond {
		c.visit(cond)
	}

	c.conditional++

	for _, child := range pyast.NamedChildren(n) {
		if hasCond && sameNode(child, cond) {
			continue
		}

		c.visit(child)
	}

	c.conditional--
}

func (c *checker) visitWithItem(n sitter.Node) {
	value, ok := pyast.Field(n, "value")
	if !ok {
		c.visitChildren(n)

		return
	}

	c.visit(value)

	if alias, ok := pyast.Field(n, "alias"); ok {
		c.bindTarget(alias)
	}
}

func (c *checker) visitAsPattern(n sitter.Node) {
	alias, hasAlias := pyast.Field(n, "alias")

	for _, child := range pyast.NamedChildren(n) {
		if hasAlias && sameNode(child, alias) {
			continue
		}

		c.visit(child)
	}

	if hasAlias {
		c.bindTarget(alias)
	}
}

// visitExcept handles both grammar shapes: "except E as e" with an as_pattern
// child and with a bare "as" token followed by the target.
func (c *checker) visitExcept(n sitter.Node) {
	afterAs := false

	for _, child := range pyast.Children(n) {
		if !child.IsNamed() {
			if child.Type() == "as" {
				afterAs = true
			}

			continue
		}

		if afterAs && child.Type() != "block" && child.Type() != "comment" {
			c.bindTarget(child)

			afterAs = false

			continue
		}

		c.visit(child)
	}
}

func (c *checker) visitDelete(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		c.deleteTarget(child)
	}
}

func (c *checker) deleteTarget(n sitter.Node) {
	switch n.Type() {
	case "identifier":
		if c.conditional > 0 {
			return
		}

		delete(c.current().bindings, c.text(n))
	case "expression_list", "tuple", "list", "pattern_list", "parenthesized_expression":
		for _, child := range pyast.NamedChildren(n) {
			c.deleteTarget(child)
		}
	default:
		c.visit(n)
	}
}

// visitComprehension opens a generator scope and walks the for/if clauses
// before the element expression.
func (c *checker) visitComprehension(n sitter.Node) {
	body, hasBody := pyast.Field(n, "body")

	c.push(GeneratorScope)

	for _, child := range pyast.NamedChildren(n) {
		if hasBody && sameNode(child, body) {
			continue
		}

		if child.Type() == "for_in_clause" {
			c.visitForIn(child)

			continue
		}

		c.visit(child)
	}

	if hasBody {
		c.visit(body)
	}

	c.pop()
}

func (c *checker) visitForIn(n sitter.Node) {
	left, hasLeft := pyast.Field(n, "left")

	for _, part := range pyast.NamedChildren(n) {
		if hasLeft && sameNode(part, left) {
			continue
		}

		c.visit(part)
	}

	if hasLeft {
		c.bindTarget(left)
	}
}

func (c *checker) visitCall(n sitter.Node) {
	fn, ok := pyast.Field(n, "function")
	if ok && fn.Type() == "attribute" && c.atModuleLevel() {
		c.recordAllMethod(n, fn)
	}

	c.visitChildren(n)
}

// recordAllMethod tracks __all__.extend([...]) and __all__.append("x").
func (c *checker) recordAllMethod(call, fn sitter.Node) {
	obj, hasObj := pyast.Field(fn, "object")
	attr, hasAttr := pyast.Field(fn, "attribute")

	if !hasObj || !hasAttr || obj.Type() != "identifier" || c.text(obj) != "__all__" {
		return
	}

	args, ok := pyast.Field(call, "arguments")
	if !ok {
		return
	}

	values := pyast.NamedChildren(args)
	if len(values) != 1 {
		return
	}

	switch c.text(attr) {
	case "extend":
		c.exports.extend(values[0], c.src, c.locate(call))
	case "append":
		c.exports.appendOne(values[0], c.src, c.locate(call))
	}
}
