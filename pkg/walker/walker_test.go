package walker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/removestar/pkg/walker"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return dir
}

func relPaths(t *testing.T, root string, entries []walker.Entry) []string {
	t.Helper()

	out := make([]string, 0, len(entries))

	for _, e := range entries {
		require.NoError(t, e.Err)

		rel, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)

		out = append(out, filepath.ToSlash(rel))
	}

	return out
}

var tree = map[string]string{
	"pkg/__init__.py":           "",
	"pkg/a.py":                  "x = 1\n",
	"pkg/b.py":                  "y = 2\n",
	"pkg/notes.txt":             "hello\n",
	"pkg/stub.pyi":              "x: int\n",
	"pkg/sub/c.py":              "z = 3\n",
	"pkg/.hidden/d.py":          "",
	"pkg/.e.py":                 "",
	"pkg/node_modules/dep/f.py": "",
	"pkg/generated/g.py":        "",
	"bin/tool":                  "#!/usr/bin/env python3\nprint('hi')\n",
	"bin/run":                   "#!/bin/sh\necho hi\n",
	"bin/empty":                 "",
}

func TestExpand_Directory(t *testing.T) {
	t.Parallel()

	root := writeFiles(t, tree)

	tests := []struct {
		name string
		opts walker.Options
		want []string
	}{
		{
			name: "defaults",
			opts: walker.Options{},
			want: []string{
				"bin/tool",
				"pkg/__init__.py", "pkg/a.py", "pkg/b.py",
				"pkg/generated/g.py", "pkg/node_modules/dep/f.py", "pkg/sub/c.py",
			},
		},
		{
			name: "skip init and vendor",
			opts: walker.Options{SkipInit: true, SkipVendor: true},
			want: []string{"bin/tool", "pkg/a.py", "pkg/b.py", "pkg/generated/g.py", "pkg/sub/c.py"},
		},
		{
			name: "exclude by name and path",
			opts: walker.Options{SkipInit: true, SkipVendor: true, Exclude: []string{"b.py", "pkg/generated", "bin/*"}},
			want: []string{"pkg/a.py", "pkg/sub/c.py"},
		},
		{
			name: "exclude directory prefix",
			opts: walker.Options{SkipInit: true, SkipVendor: true, Exclude: []string{"pkg/sub/"}},
			want: []string{"bin/tool", "pkg/a.py", "pkg/b.py", "pkg/generated/g.py"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := walker.Expand([]string{root}, tt.opts)
			assert.Equal(t, tt.want, relPaths(t, root, entries))
		})
	}
}

func TestExpand_Files(t *testing.T) {
	t.Parallel()

	root := writeFiles(t, tree)
	notes := filepath.Join(root, "pkg", "notes.txt")
	initFile := filepath.Join(root, "pkg", "__init__.py")
	missing := filepath.Join(root, "missing.py")

	entries := walker.Expand([]string{notes, missing, initFile}, walker.Options{SkipInit: true})
	require.Len(t, entries, 2)

	assert.Equal(t, notes, entries[0].Path)
	require.NoError(t, entries[0].Err)

	assert.Equal(t, missing, entries[1].Path)
	require.ErrorIs(t, entries[1].Err, walker.ErrNotExist)

	entries = walker.Expand([]string{initFile}, walker.Options{})
	require.Len(t, entries, 1)
	assert.Equal(t, initFile, entries[0].Path)
}

func TestIsPython(t *testing.T) {
	t.Parallel()

	root := writeFiles(t, tree)

	tests := []struct {
		path string
		want bool
	}{
		{"pkg/a.py", true},
		{"pkg/stub.pyi", false},
		{"pkg/notes.txt", false},
		{"bin/tool", true},
		{"bin/run", false},
		{"bin/empty", false},
		{"bin/absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, walker.IsPython(filepath.Join(root, filepath.FromSlash(tt.path))))
		})
	}
}
