// Package textdiff renders line-based unified diffs in the format of
// Python's difflib.unified_diff.
package textdiff

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// NoNewlineMarker follows a diff line whose source line has no trailing newline.
const NoNewlineMarker = `\ No newline at end of file`

const (
	originalPrefix = "original/"
	fixedPrefix    = "fixed/"
)

type opTag byte

const (
	opEqual opTag = iota
	opReplace
)

// opcode spans a[i1:i2] and b[j1:j2]. Replace covers pure inserts and
// deletes too; one side is then empty.
type opcode struct {
	tag            opTag
	i1, i2, j1, j2 int
}

// FileDiff returns the diff of a rewritten file with original/ and fixed/
// headers. Identical inputs yield the empty string.
func FileDiff(filename, original, fixed string) string {
	return Unified(original, fixed, originalPrefix+filename, fixedPrefix+filename, DefaultContext)
}

// Unified returns the unified diff turning a into b with n lines of context.
func Unified(a, b, fromFile, toFile string, n int) string {
	if a == b {
		return ""
	}

	aLines, bLines := SplitLines(a), SplitLines(b)

	var out strings.Builder

	out.WriteString("--- " + fromFile + "\n")
	out.WriteString("+++ " + toFile + "\n")

	for _, group := range groupOpcodes(lineOpcodes(a, b), n) {
		first, last := group[0], group[len(group)-1]

		fmt.Fprintf(&out, "@@ -%s +%s @@\n", formatRange(first.i1, last.i2), formatRange(first.j1, last.j2))

		for _, op := range group {
			if op.tag == opEqual {
				writeLines(&out, ' ', aLines[op.i1:op.i2])

				continue
			}

			writeLines(&out, '-', aLines[op.i1:op.i2])
			writeLines(&out, '+', bLines[op.j1:op.j2])
		}
	}

	return out.String()
}

// SplitLines splits text after every newline, keeping the terminators. A
// final line without newline is kept as is.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func writeLines(out *strings.Builder, prefix byte, lines []string) {
	for _, line := range lines {
		out.WriteByte(prefix)
		out.WriteString(line)

		if !strings.HasSuffix(line, "\n") {
			out.WriteString("\n" + NoNewlineMarker + "\n")
		}
	}
}

// lineOpcodes diffs a and b line by line. Runs of inserts and deletes
// between two equal blocks collapse into one replace opcode.
func lineOpcodes(a, b string) []opcode {
	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(a, b)
	diffs := dmp.DiffMainRunes(src, dst, false)

	var (
		ops    []opcode
		i, j   int
		change *opcode
	)

	flush := func() {
		if change != nil {
			ops = append(ops, *change)
			change = nil
		}
	}

	for _, d := range diffs {
		count := utf8.RuneCountInString(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()

			ops = append(ops, opcode{tag: opEqual, i1: i, i2: i + count, j1: j, j2: j + count})
			i += count
			j += count
		case diffmatchpatch.DiffDelete:
			if change == nil {
				change = &opcode{tag: opReplace, i1: i, i2: i, j1: j, j2: j}
			}

			i += count
			change.i2 = i
		case diffmatchpatch.DiffInsert:
			if change == nil {
				change = &opcode{tag: opReplace, i1: i, i2: i, j1: j, j2: j}
			}

			j += count
			change.j2 = j
		}
	}

	flush()

	return ops
}

// groupOpcodes splits opcodes into hunks, trimming unchanged runs to n
// lines of context and breaking hunks apart at runs longer than 2n.
func groupOpcodes(ops []opcode, n int) [][]opcode {
	if len(ops) == 0 {
		ops = []opcode{{tag: opEqual, i1: 0, i2: 1, j1: 0, j2: 1}}
	}

	if first := &ops[0]; first.tag == opEqual {
		first.i1 = max(first.i1, first.i2-n)
		first.j1 = max(first.j1, first.j2-n)
	}

	if last := &ops[len(ops)-1]; last.tag == opEqual {
		last.i2 = min(last.i2, last.i1+n)
		last.j2 = min(last.j2, last.j1+n)
	}

	var (
		groups [][]opcode
		group  []opcode
	)

	for _, op := range ops {
		if op.tag == opEqual && op.i2-op.i1 > 2*n {
			head := opcode{tag: opEqual, i1: op.i1, i2: min(op.i2, op.i1+n), j1: op.j1, j2: min(op.j2, op.j1+n)}
			group = append(group, head)
			groups = append(groups, group)
			group = nil
			op.i1 = max(op.i1, op.i2-n)
			op.j1 = max(op.j1, op.j2-n)
		}

		group = append(group, op)
	}

	if len(group) > 0 && (len(group) != 1 || group[0].tag != opEqual) {
		groups = append(groups, group)
	}

	return groups
}

// formatRange renders a hunk range: "start,len", with len omitted when it
// is 1 and start moved back by one for empty ranges.
func formatRange(start, stop int) string {
	beginning := start + 1
	length := stop - start

	if length == 1 {
		return fmt.Sprint(beginning)
	}

	if length == 0 {
		beginning--
	}

	return fmt.Sprintf("%d,%d", beginning, length)
}
