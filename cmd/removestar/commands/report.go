package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/removestar/pkg/config"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/textdiff"
)

// painter colorizes diffs when enabled.
type painter struct {
	enabled bool
}

// newPainter resolves a color mode for out. Auto colors only the process's
// own stdout and stderr, and only when stdout is a terminal.
func newPainter(mode string, out io.Writer) painter {
	switch mode {
	case config.ColorAlways:
		return painter{enabled: true}
	case config.ColorNever:
		return painter{}
	default:
		isStd := out == io.Writer(os.Stdout) || out == io.Writer(os.Stderr)

		return painter{enabled: isStd && !color.NoColor}
	}
}

func (p painter) paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	c.EnableColor()

	return c.Sprint(text)
}

// line colors one message when enabled.
func (p painter) line(text string, attrs ...color.Attribute) string {
	if !p.enabled {
		return text
	}

	return p.paint(text, attrs...)
}

// diff colors a unified diff line by line: file headers bold, hunk headers
// cyan, additions green and removals red.
func (p painter) diff(text string) string {
	if !p.enabled {
		return text
	}

	var (
		b      strings.Builder
		inHunk bool
	)

	for _, line := range textdiff.SplitLines(text) {
		body, newline := strings.CutSuffix(line, "\n")

		switch {
		case strings.HasPrefix(body, "@@"):
			inHunk = true

			body = p.paint(body, color.FgCyan)
		case !inHunk && (strings.HasPrefix(body, "---") || strings.HasPrefix(body, "+++")):
			body = p.paint(body, color.Bold)
		case strings.HasPrefix(body, "+"):
			body = p.paint(body, color.FgGreen)
		case strings.HasPrefix(body, "-"):
			body = p.paint(body, color.FgRed)
		}

		b.WriteString(body)

		if newline {
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// summary accumulates the statistics of one run.
type summary struct {
	files       int
	changed     int
	failed      int
	starImports int
	names       int
	warnings    int
	bytes       int
	elapsed     time.Duration
}

// exitError maps the summary to the command's exit status.
func (s summary) exitError() error {
	switch {
	case s.failed > 0:
		return &ExitError{Code: ExitFailure}
	case s.changed > 0:
		return &ExitError{Code: ExitChanged}
	default:
		return nil
	}
}

// reporter prints outcomes: diffs to stdout, everything else to stderr.
type reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	paint   painter
	warn    painter
	inPlace bool
}

func (r *reporter) report(outcomes []outcome) summary {
	var sum summary

	for _, o := range outcomes {
		switch {
		case o.missing:
			fmt.Fprintln(r.stderr, r.warn.line(fmt.Sprintf("Error: %v", o.err), color.FgRed))

			sum.failed++
		case o.err != nil:
			r.fileError(o.path, o.err)

			sum.failed++
		default:
			r.file(o.path, o.result, &sum)
		}
	}

	return sum
}

func (r *reporter) file(path string, result *removestar.Result, sum *summary) {
	sum.files++
	sum.starImports += len(result.Wildcards)
	sum.names += result.Attribution.Count()
	sum.bytes += len(result.Original)

	for _, d := range result.Diagnostics {
		if !d.IsWarning() {
			fmt.Fprintln(r.stderr, d.String())

			continue
		}

		fmt.Fprintln(r.stderr, r.warn.line(d.String(), color.FgYellow))

		sum.warnings++
	}

	if !result.Changed() {
		return
	}

	sum.changed++

	if r.inPlace {
		err := writeInPlace(path, result.Source)
		if err != nil {
			r.fileError(path, err)

			sum.failed++
		}

		return
	}

	// The diff ends with a newline; the extra one separates files.
	fmt.Fprintln(r.stdout, r.paint.diff(textdiff.FileDiff(path, result.Original, result.Source)))
}

func (r *reporter) fileError(path string, err error) {
	fmt.Fprintln(r.stderr, r.warn.line(fmt.Sprintf("Error with %s: %v", path, err), color.FgRed))
}

func writeInPlace(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	err = os.WriteFile(path, []byte(content), info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// stats renders the run statistics as a table.
func (r *reporter) stats(sum summary) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Files fixed", humanize.Comma(int64(sum.files))},
		{"Files changed", humanize.Comma(int64(sum.changed))},
		{"Errors", humanize.Comma(int64(sum.failed))},
		{"Star imports", humanize.Comma(int64(sum.starImports))},
		{"Names imported", humanize.Comma(int64(sum.names))},
		{"Warnings", humanize.Comma(int64(sum.warnings))},
		{"Source read", humanize.Bytes(uint64(sum.bytes))}, //nolint:gosec // byte counts are non-negative
		{"Elapsed", sum.elapsed.Round(time.Millisecond).String()},
	})

	fmt.Fprintln(r.stderr, tbl.Render())
}
