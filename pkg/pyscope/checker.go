// Package pyscope tracks name bindings across Python scopes and reports the
// names a module can only be getting from its wildcard imports.
//
// Function and lambda bodies are visited after the enclosing module has been
// fully walked, so a name defined at module level after a function that uses
// it still counts as bound. Class bodies are only visible to code directly
// inside them.
package pyscope

import (
	"context"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

const packageInit = "__init__.py"

// Options tune a single analysis.
type Options struct {
	// Filename of the analyzed module. Package initializers also define __path__.
	Filename string
}

type deferredBody struct {
	stack       []*scope
	src         []byte
	conditional int
	run         func()
}

type checker struct {
	ctx  context.Context
	src  []byte
	opts Options

	stack   []*scope
	pending []deferredBody

	// stars holds the module reference of every wildcard statement, in order.
	stars       []string
	wildcards   []Wildcard
	wildcardIdx map[string]int

	usages   []Usage
	usageIdx map[string]int

	exports exportList

	conditional        int
	inAnnotation       int
	inStringAnnotation bool
	// anchor replaces node positions while walking a string annotation.
	anchor *Location
}

// Analyze walks a parsed module. It returns early with the context error if
// ctx is canceled between deferred function bodies.
func Analyze(ctx context.Context, tree *pyast.Tree, opts Options) (*Report, error) {
	c := &checker{
		ctx:         ctx,
		src:         tree.Source,
		opts:        opts,
		wildcardIdx: make(map[string]int),
		usageIdx:    make(map[string]int),
	}

	c.push(ModuleScope)
	c.visit(tree.Root)

	err := c.runDeferred()
	if err != nil {
		return nil, err
	}

	c.checkExports()

	return c.report(), nil
}

// AnalyzeSource parses src and analyzes it. Parse failures wrap pyast.ErrSyntax.
func AnalyzeSource(ctx context.Context, src []byte, opts Options) (*Report, error) {
	tree, err := pyast.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	defer tree.Close()

	return Analyze(ctx, tree, opts)
}

func (c *checker) push(kind Kind) {
	c.stack = append(c.stack, newScope(kind))
}

func (c *checker) pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *checker) current() *scope {
	return c.stack[len(c.stack)-1]
}

func (c *checker) module() *scope {
	return c.stack[0]
}

func (c *checker) atModuleLevel() bool {
	return len(c.stack) == 1 && !c.inStringAnnotation
}

func (c *checker) text(n sitter.Node) string {
	return pyast.Text(n, c.src)
}

func (c *checker) locate(n sitter.Node) Location {
	if c.anchor != nil {
		return *c.anchor
	}

	line, col := pyast.Position(n)

	return Location{Line: line, Column: col}
}

func (c *checker) bind(name string) {
	c.current().bind(name, bindValue)
}

func (c *checker) runDeferred() error {
	for len(c.pending) > 0 {
		err := c.ctx.Err()
		if err != nil {
			return err
		}

		next := c.pending[0]
		c.pending = c.pending[1:]

		c.stack = slices.Clone(next.stack)
		c.src = next.src
		c.conditional = next.conditional
		c.inAnnotation = 0

		next.run()
	}

	return nil
}

// deferBody schedules run inside a fresh function scope holding params. The
// scope chain is captured now, but bindings added to it later stay visible.
func (c *checker) deferBody(kind Kind, params []string, run func()) {
	c.pending = append(c.pending, deferredBody{
		stack:       slices.Clone(c.stack),
		src:         c.src,
		conditional: c.conditional,
		run: func() {
			c.push(kind)

			for _, param := range params {
				c.bind(param)
			}

			run()
			c.pop()
		},
	})
}

func (c *checker) visitChildren(n sitter.Node) {
	for _, child := range pyast.NamedChildren(n) {
		c.visit(child)
	}
}

//nolint:gocyclo,cyclop,funlen // one case per grammar node kind.
func (c *checker) visit(n sitter.Node) {
	if n.IsNull() {
		return
	}

	switch n.Type() {
	case "comment", "string_start", "string_content", "string_end", "escape_sequence",
		"integer", "float", "true", "false", "none", "ellipsis", "line_continuation",
		"keyword_separator", "positional_separator", "wildcard_import":
		return
	case "identifier":
		c.load(c.text(n), n)
	case "attribute":
		if obj, ok := pyast.Field(n, "object"); ok {
			c.visit(obj)
		}
	case "keyword_argument":
		if value, ok := pyast.Field(n, "value"); ok {
			c.visit(value)
		}
	case "dotted_name":
		if first, ok := pyast.FirstNamedOfType(n, "identifier"); ok {
			c.visit(first)
		}
	case "import_statement":
		c.visitImport(n)
	case "import_from_statement":
		c.visitImportFrom(n)
	case "future_import_statement":
		c.visitFutureImport(n)
	case "global_statement", "nonlocal_statement":
		c.visitGlobal(n)
	case "function_definition":
		c.visitFunction(n)
	case "class_definition":
		c.visitClass(n)
	case "lambda":
		c.visitLambda(n)
	case "assignment":
		c.visitAssignment(n)
	case "augmented_assignment":
		c.visitAugmentedAssignment(n)
	case "named_expression":
		c.visitNamedExpression(n)
	case "for_statement":
		c.visitFor(n)
	case "if_statement", "elif_clause", "while_statement":
		c.visitConditional(n)
	case "conditional_expression":
		c.conditional++
		c.visitChildren(n)
		c.conditional--
	case "with_item":
		c.visitWithItem(n)
	case "as_pattern":
		c.visitAsPattern(n)
	case "except_clause", "except_group_clause":
		c.visitExcept(n)
	case "delete_statement":
		c.visitDelete(n)
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		c.visitComprehension(n)
	case "match_statement":
		c.visitMatch(n)
	case "type":
		c.visitAnnotation(n)
	case "type_alias_statement":
		c.visitTypeAlias(n)
	case "call":
		c.visitCall(n)
	case "subscript", "generic_type":
		c.visitSubscript(n)
	case "string", "concatenated_string":
		c.visitString(n)
	default:
		c.visitChildren(n)
	}
}

// load resolves a name reference. An unbound name seen while a wildcard
// import is visible becomes a usage.
func (c *checker) load(name string, at sitter.Node) {
	var (
		starred        bool
		canAccessClass bool
	)

	top := len(c.stack) - 1

	for i := top; i >= 0; i-- {
		s := c.stack[i]
		if s.kind == ClassScope && i != top && !canAccessClass {
			continue
		}

		canAccessClass = s.kind == GeneratorScope || s.kind == TypeScope

		if s.defines(name) {
			return
		}

		if len(s.stars) > 0 {
			starred = true
		}
	}

	if !starred || IsImplicit(name) {
		return
	}

	if name == "__path__" && filepath.Base(c.opts.Filename) == packageInit {
		return
	}

	c.recordUsage(name, c.visibleStars(), c.locate(at))
}

// visibleStars returns the distinct wildcard modules imported anywhere in the
// current scope chain, in import order.
func (c *checker) visibleStars() []string {
	var indexes []int
	for _, s := range c.stack {
		indexes = append(indexes, s.stars...)
	}

	sort.Ints(indexes)

	modules := make([]string, 0, len(indexes))

	for _, idx := range indexes {
		module := c.stars[idx]
		if !slices.Contains(modules, module) {
			modules = append(modules, module)
		}
	}

	return modules
}

func (c *checker) recordUsage(name string, modules []string, at Location) {
	if idx, ok := c.usageIdx[name]; ok {
		for _, module := range modules {
			if !slices.Contains(c.usages[idx].Modules, module) {
				c.usages[idx].Modules = append(c.usages[idx].Modules, module)
			}
		}

		c.usages[idx].Modules = c.sortByImportOrder(c.usages[idx].Modules)

		return
	}

	c.usageIdx[name] = len(c.usages)
	c.usages = append(c.usages, Usage{Name: name, Modules: modules, Location: at})
}

func (c *checker) sortByImportOrder(modules []string) []string {
	sort.SliceStable(modules, func(i, j int) bool {
		return c.wildcardIdx[modules[i]] < c.wildcardIdx[modules[j]]
	})

	return modules
}

func (c *checker) addWildcard(moduleNode, stmt sitter.Node) {
	module := strings.Join(strings.Fields(c.text(moduleNode)), "")

	idx := len(c.stars)
	c.stars = append(c.stars, module)
	c.current().stars = append(c.current().stars, idx)

	if existing, ok := c.wildcardIdx[module]; ok {
		c.wildcards[existing].Occurrences++

		return
	}

	c.wildcardIdx[module] = len(c.wildcards)
	c.wildcards = append(c.wildcards, Wildcard{
		Module:      module,
		Level:       len(module) - len(strings.TrimLeft(module, ".")),
		Location:    c.locate(stmt),
		Occurrences: 1,
	})
}

// checkExports treats names listed in a literal __all__ as loads at the end
// of the module.
func (c *checker) checkExports() {
	names, ok := c.exports.static()
	if !ok {
		return
	}

	module := c.module()
	if len(module.stars) == 0 {
		return
	}

	for _, name := range names {
		if module.defines(name) || IsImplicit(name) {
			continue
		}

		c.stack = c.stack[:1]
		c.recordUsage(name, c.visibleStars(), c.exports.at)
	}
}

func (c *checker) report() *Report {
	module := c.module()
	names := make([]string, 0, len(module.bindings))

	for name, kind := range module.bindings {
		if kind == bindImplicit || IsImplicit(name) {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	rep := &Report{
		Wildcards: c.wildcards,
		Usages:    c.usages,
		Names:     names,
	}

	if all, ok := c.exports.static(); ok {
		rep.All = all
		rep.HasAll = true
	}

	if rep.Wildcards == nil {
		rep.Wildcards = []Wildcard{}
	}

	if rep.Usages == nil {
		rep.Usages = []Usage{}
	}

	return rep
}
