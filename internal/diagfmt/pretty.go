// Package diagfmt renders diagnostics for humans: one header line per
// diagnostic plus the offending source line with a caret underline.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"memoc/internal/diag"
	"memoc/internal/source"
)

// Options controls rendering.
type Options struct {
	Color bool
	// Context enables the source line and caret underline.
	Context bool
}

// Render writes every diagnostic in the bag.
func Render(w io.Writer, fs *source.FileSet, bag *diag.Bag, opts Options) {
	for _, d := range bag.Items() {
		RenderOne(w, fs, d, opts)
	}
}

// RenderOne writes a single diagnostic.
func RenderOne(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts Options) {
	path, lc := fs.Position(d.Primary)

	sev := d.Severity.String()
	if opts.Color {
		switch d.Severity {
		case diag.SevError:
			sev = color.New(color.FgRed, color.Bold).Sprint(sev)
		case diag.SevWarning:
			sev = color.New(color.FgYellow, color.Bold).Sprint(sev)
		default:
			sev = color.New(color.FgCyan).Sprint(sev)
		}
	}

	fmt.Fprintf(w, "%s:%d:%d: %s[%s]: %s\n", path, lc.Line, lc.Col, sev, d.Code, d.Message)

	if opts.Context {
		writeContext(w, fs, d.Primary, lc, opts.Color)
	}
	for _, n := range d.Notes {
		npath, nlc := fs.Position(n.Span)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", npath, nlc.Line, nlc.Col, n.Msg)
	}
}

// writeContext prints the source line and a caret underline sized with
// display widths, so wide runes underline correctly.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, lc source.LineCol, colorize bool) {
	line := fs.Line(sp.File, lc.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	prefix := line
	if int(lc.Col-1) <= len(line) {
		prefix = line[:lc.Col-1]
	}
	pad := runewidth.StringWidth(prefix)

	span := fs.Snippet(sp)
	width := runewidth.StringWidth(span)
	if idx := strings.IndexByte(span, '\n'); idx >= 0 {
		width = runewidth.StringWidth(span[:idx])
	}
	if width < 1 {
		width = 1
	}

	caret := strings.Repeat("^", width)
	if colorize {
		caret = color.New(color.FgRed, color.Bold).Sprint(caret)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), caret)
}
