package pyast_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/removestar/pkg/pyast"
)

func TestParseValidModule(t *testing.T) {
	t.Parallel()

	tree, err := pyast.Parse(context.Background(), []byte("from .mod import *\n\nx = 1\n"))
	require.NoError(t, err)

	defer tree.Close()

	assert.Equal(t, "module", tree.Root.Type())

	stmts := pyast.NamedChildren(tree.Root)
	require.Len(t, stmts, 2)
	assert.Equal(t, "import_from_statement", stmts[0].Type())
	assert.True(t, pyast.HasChildOfType(stmts[0], "wildcard_import"))

	module, ok := pyast.Field(stmts[0], "module_name")
	require.True(t, ok)
	assert.Equal(t, ".mod", pyast.Text(module, tree.Source))

	line, col := pyast.Position(stmts[1])
	assert.Equal(t, 3, line)
	assert.Equal(t, 0, col)
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		line   int
		detail string
	}{
		{"unclosed paren", "print((1, 2)\n", 1, ""},
		{"bad def", "def f(:\n    pass\n", 1, ""},
		{"stray operator", "x = = 1\n", 1, ""},
		{"print statement", "x = 1\nprint 'hello'\n", 2, "print statement"},
		{"print chevron", "import sys\nprint >>sys.stderr, 'x'\n", 2, "print statement"},
		{"exec statement", "exec 'a = 1'\n", 1, "exec statement"},
		{"nested print statement", "def f():\n    if True:\n        print 'x'\n", 3, "print statement"},
		{"not-equal operator", "if 1 <> 2:\n    pass\n", 1, "<>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, err := pyast.Parse(context.Background(), []byte(tt.src))
			require.ErrorIs(t, err, pyast.ErrSyntax)
			assert.Nil(t, tree)
			assert.Contains(t, err.Error(), "line ")

			var syntaxErr *pyast.SyntaxError

			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.line, syntaxErr.Line)
			assert.Contains(t, syntaxErr.Detail, tt.detail)
		})
	}
}

func TestParsePython3CallsToPrintAndExec(t *testing.T) {
	t.Parallel()

	tree, err := pyast.Parse(context.Background(), []byte("print('hello')\nprint(1, 2)\nexec('a = 1')\nx = 1 != 2\n"))
	require.NoError(t, err)

	tree.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	tree, err := pyast.Parse(context.Background(), []byte("pass\n"))
	require.NoError(t, err)

	tree.Close()
	tree.Close()

	var empty *pyast.Tree
	empty.Close()
}

func TestStringValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		want   string
		wantOK bool
	}{
		{"single quotes", `'abc'`, "abc", true},
		{"double quotes", `"abc"`, "abc", true},
		{"triple quotes", `"""abc"""`, "abc", true},
		{"raw", `r'a\b'`, `a\b`, true},
		{"unicode prefix", `u'abc'`, "abc", true},
		{"empty", `''`, "", true},
		{"concatenated", `'ab' "cd"`, "abcd", true},
		{"f-string", `f'{x}'`, "", false},
		{"bytes", `b'abc'`, "", false},
		{"not a string", `42`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := []byte(tt.src + "\n")

			tree, err := pyast.Parse(context.Background(), src)
			require.NoError(t, err)

			defer tree.Close()

			stmt := pyast.NamedChildren(tree.Root)[0]
			expr := pyast.NamedChildren(stmt)[0]

			got, ok := pyast.StringValue(expr, tree.Source)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstNamedOfType(t *testing.T) {
	t.Parallel()

	tree, err := pyast.Parse(context.Background(), []byte("import a.b as c\n"))
	require.NoError(t, err)

	defer tree.Close()

	stmt := pyast.NamedChildren(tree.Root)[0]

	aliased, ok := pyast.FirstNamedOfType(stmt, "aliased_import")
	require.True(t, ok)

	alias, ok := pyast.Field(aliased, "alias")
	require.True(t, ok)
	assert.Equal(t, "c", pyast.Text(alias, tree.Source))

	_, ok = pyast.FirstNamedOfType(stmt, "wildcard_import")
	assert.False(t, ok)
}
