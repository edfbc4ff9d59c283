// Package pyast parses Python source code with tree-sitter and provides the
// small set of node helpers the scope checker relies on.
package pyast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parse operations.
var (
	// ErrSyntax indicates the source is not valid Python.
	ErrSyntax = errors.New("syntax error")

	errNoRootNode = errors.New("pyast: no root node")
	errPoolType   = errors.New("pyast: pool returned unexpected type")
)

// SyntaxError locates the first error in a source that failed to parse.
// It matches ErrSyntax under errors.Is.
type SyntaxError struct {
	// Line is 1-based, Column a 0-based byte offset.
	Line   int
	Column int
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d, column %d: %s", ErrSyntax, e.Line, e.Column, e.Detail)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

var (
	languageOnce sync.Once
	language     *sitter.Language

	parserPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(Language())

			return tsParser
		},
	}
)

// Language returns the tree-sitter Python grammar.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(python.GetLanguage())
	})

	return language
}

// Tree is a parsed Python module together with the source it was parsed from.
type Tree struct {
	Source []byte
	Root   sitter.Node

	tree *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t == nil || t.tree == nil {
		return
	}

	t.tree.Close()
	t.tree = nil
}

// Parse parses src as a Python module. Sources containing error or missing
// nodes, or Python 2 only constructs the grammar still accepts, are rejected
// with an error wrapping ErrSyntax that carries the position of the first
// offending node.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	tsParser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("pyast: failed to parse: %w", err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	if root.HasError() {
		bad := firstErrorNode(root)
		line, col := Position(bad)

		tree.Close()

		return nil, &SyntaxError{Line: line, Column: col, Detail: describeError(bad, src)}
	}

	if legacy, detail, found := firstLegacyNode(root); found {
		line, col := Position(legacy)

		tree.Close()

		return nil, &SyntaxError{Line: line, Column: col, Detail: detail}
	}

	return &Tree{Source: src, Root: root, tree: tree}, nil
}

// legacyNodes are grammar productions that only Python 2 accepts.
var legacyNodes = map[string]string{
	"print_statement": "print statement requires parentheses",
	"exec_statement":  "exec statement requires parentheses",
	"<>":              `"<>" is not a comparison operator`,
}

// firstLegacyNode finds the first Python 2 only node in document order.
func firstLegacyNode(n sitter.Node) (sitter.Node, string, bool) {
	if detail, ok := legacyNodes[n.Type()]; ok {
		return n, detail, true
	}

	for _, child := range Children(n) {
		if found, detail, ok := firstLegacyNode(child); ok {
			return found, detail, true
		}
	}

	return n, "", false
}

// firstErrorNode returns the first ERROR or MISSING node in document order,
// or n itself when none can be located.
func firstErrorNode(n sitter.Node) sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}

	for i := range n.ChildCount() {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}

		return firstErrorNode(child)
	}

	return n
}

// maxSnippetLen bounds the source excerpt quoted in syntax errors.
const maxSnippetLen = 40

func describeError(n sitter.Node, src []byte) string {
	if n.IsMissing() {
		return fmt.Sprintf("missing %q", n.Type())
	}

	snippet := clip(Text(n, src), maxSnippetLen)
	if snippet == "" {
		return "invalid syntax"
	}

	return fmt.Sprintf("invalid syntax near %q", snippet)
}

// clip shortens s to at most limit bytes without splitting a rune, marking
// the cut with "...".
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
