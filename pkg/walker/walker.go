// Package walker expands command line paths into the Python files to fix.
package walker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

const (
	pythonExt    = ".py"
	pythonLang   = "Python"
	packageInit  = "__init__.py"
	sniffedBytes = 512
)

// ErrNotExist is returned for a command line path that does not exist.
var ErrNotExist = errors.New("no such file or directory")

// Options control which files a walk yields.
type Options struct {
	// SkipInit drops package __init__.py files.
	SkipInit bool
	// SkipVendor prunes vendored directories (virtualenvs, site-packages, node_modules...).
	SkipVendor bool
	// Exclude holds glob patterns matched against the base name and the
	// slash-separated path relative to the walked root.
	Exclude []string
}

// Entry is one yielded path. Err is set when the command line path could not
// be expanded; Path then names that argument.
type Entry struct {
	Path string
	Err  error
}

// Expand turns paths into entries in argument order. Directories are walked
// recursively in lexical order, yielding Python sources and skipping hidden
// entries. Paths naming a file are yielded as given, whatever their extension.
func Expand(paths []string, opts Options) []Entry {
	var entries []Entry

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			entries = append(entries, Entry{Path: p, Err: statError(p, err)})

			continue
		}

		if !info.IsDir() {
			name := filepath.Base(p)
			if !(opts.SkipInit && name == packageInit) && !opts.excluded(filepath.ToSlash(p), name) {
				entries = append(entries, Entry{Path: p})
			}

			continue
		}

		entries = append(entries, walk(p, opts)...)
	}

	return entries
}

func statError(p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", p, ErrNotExist)
	}

	return fmt.Errorf("%s: %w", p, err)
}

func walk(root string, opts Options) []Entry {
	var entries []Entry

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			entries = append(entries, Entry{Path: p, Err: err})

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if enry.IsDotFile(d.Name()) || opts.SkipVendor && enry.IsVendor(rel+"/") || opts.excluded(rel, d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if enry.IsDotFile(d.Name()) || !d.Type().IsRegular() || opts.skipped(rel, d.Name()) {
			return nil
		}

		if IsPython(p) {
			entries = append(entries, Entry{Path: p})
		}

		return nil
	})
	if walkErr != nil {
		entries = append(entries, Entry{Path: root, Err: walkErr})
	}

	return entries
}

func (o Options) skipped(rel, name string) bool {
	if o.SkipInit && name == packageInit {
		return true
	}

	if o.SkipVendor && enry.IsVendor(rel) {
		return true
	}

	return o.excluded(rel, name)
}

func (o Options) excluded(rel, name string) bool {
	for _, pattern := range o.Exclude {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}

		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}

		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel+"/", pattern) {
			return true
		}
	}

	return false
}

// IsPython reports whether the file at p is Python source: a .py file, or an
// extension-less file enry recognizes as Python (usually by its shebang).
func IsPython(p string) bool {
	ext := filepath.Ext(p)
	if ext == pythonExt {
		return true
	}

	if ext != "" {
		return false
	}

	head, err := sniff(p)
	if err != nil || len(head) == 0 || enry.IsBinary(head) {
		return false
	}

	return enry.GetLanguage(filepath.Base(p), head) == pythonLang
}

func sniff(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sniffedBytes)

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf[:n], nil
}
