package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/removestar/pkg/pyscope"
)

// URIToPath converts a file:// URI to a local path. Other schemes (such as
// unsaved editor buffers) yield the empty string.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}

	return filepath.FromSlash(u.Path)
}

// PathToURI converts a local path to a file:// URI.
func PathToURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// lines is a document split on "\n" with line terminators removed.
type lines []string

func splitDocument(text string) lines {
	out := strings.Split(text, "\n")
	for i, line := range out {
		out[i] = strings.TrimSuffix(line, "\r")
	}

	return out
}

// utf16Len counts the UTF-16 code units of s. LSP columns are measured in them.
func utf16Len(s string) protocol.UInteger {
	var n protocol.UInteger

	for _, r := range s {
		n += protocol.UInteger(utf16.RuneLen(r))
	}

	return n
}

// position converts a 1-based line and 0-based byte column to an LSP position.
func (ls lines) position(line, column int) protocol.Position {
	row := max(line-1, 0)
	if row >= len(ls) {
		return protocol.Position{Line: protocol.UInteger(row)}
	}

	text := ls[row]
	column = min(max(column, 0), len(text))

	return protocol.Position{
		Line:      protocol.UInteger(row),
		Character: utf16Len(text[:column]),
	}
}

// endOfLine returns the position just past the last character of pos's line.
func (ls lines) endOfLine(pos protocol.Position) protocol.Position {
	if int(pos.Line) >= len(ls) {
		return pos
	}

	return protocol.Position{Line: pos.Line, Character: utf16Len(ls[pos.Line])}
}

// toEndOfLine spans from loc to the end of its line.
func (ls lines) toEndOfLine(loc pyscope.Location) protocol.Range {
	start := ls.position(loc.Line, loc.Column)

	return protocol.Range{Start: start, End: ls.endOfLine(start)}
}

// word spans name starting at loc, or the rest of the line when name is empty.
func (ls lines) word(loc pyscope.Location, name string) protocol.Range {
	if name == "" {
		return ls.toEndOfLine(loc)
	}

	start := ls.position(loc.Line, loc.Column)
	end := start
	end.Character += utf16Len(name)

	return protocol.Range{Start: start, End: end}
}

// whole spans the entire document.
func (ls lines) whole() protocol.Range {
	last := len(ls) - 1

	return protocol.Range{
		End: protocol.Position{Line: protocol.UInteger(last), Character: utf16Len(ls[last])},
	}
}
