package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	path, rule      *color.Color
	gutter, caret   *color.Color
	added, removed  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		path:    color.New(color.Bold),
		rule:    color.New(color.FgMagenta),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.rule, p.gutter, p.caret, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes each finding as a header line followed by the source line
// and a caret underline, then the tool diagnostics and a summary.
//
//	path:line:col: warning style/Rule: message
//	   3 | source line
//	     |     ^^^^
func Pretty(w io.Writer, rep Report, fs *source.FileSet, opts Options) error {
	pal := newPalette(opts.Color)
	var b strings.Builder
	shown := rep.visible(opts)
	for i, f := range shown {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeFinding(&b, f, fs, opts, pal)
	}
	if hidden := len(rep.Findings) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "\n... %d more findings not shown\n", hidden)
	}
	if len(rep.Diagnostics) > 0 {
		if len(shown) > 0 {
			b.WriteByte('\n')
		}
		for _, d := range rep.Diagnostics {
			writeDiagnostic(&b, d, fs, opts, pal)
		}
	}
	b.WriteByte('\n')
	b.WriteString(summary(rep))
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFinding(b *strings.Builder, f finding.Finding, fs *source.FileSet, opts Options, pal palette) {
	loc := f.Location()
	fmt.Fprintf(b, "%s: %s %s: %s\n",
		pal.path.Sprintf("%s:%d:%d", displayPath(loc.Path, fs, opts.PathMode), loc.Start.Line, loc.Start.Col),
		pal.severity(f.Severity).Sprint(f.Severity.Label()),
		pal.rule.Sprint(f.RuleSet+"/"+f.RuleID),
		oneLine(f.Message))

	file := fileOf(fs, loc)
	if file == nil {
		return
	}
	writeSnippet(b, file, loc, pal)

	if !opts.ShowFixes {
		return
	}
	for _, fx := range f.Corrections {
		fmt.Fprintf(b, "  %s %s (%s)\n", pal.added.Sprint("fix:"), fx.Title, fx.Applicability)
		if !opts.ShowPreview {
			continue
		}
		for _, edit := range fx.Edits {
			preview, err := buildEditPreview(fs, edit)
			if err != nil {
				continue
			}
			for _, line := range preview.before {
				b.WriteString("    " + pal.removed.Sprint("- "+expandTabs(line)) + "\n")
			}
			for _, line := range preview.after {
				b.WriteString("    " + pal.added.Sprint("+ "+expandTabs(line)) + "\n")
			}
		}
	}
}

// writeSnippet prints the first line of loc with carets under the located
// text. Spans running past the line end are underlined up to it.
func writeSnippet(b *strings.Builder, file *source.File, loc finding.Location, pal palette) {
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return
	}
	text := file.GetLine(loc.Start.Line)
	lineStart := lineStartOffset(file, loc.Start.Line, size)
	textLen, err := safecast.Conv[uint32](len(text))
	if err != nil || loc.Span.Start < lineStart {
		return
	}
	lineEnd := lineStart + textLen
	start := min(loc.Span.Start, lineEnd)
	end := min(max(loc.Span.End, start), lineEnd)

	num := strconv.FormatUint(uint64(loc.Start.Line), 10)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(b, " %s %s %s\n", pal.gutter.Sprint(num), pal.gutter.Sprint("|"), expandTabs(text))

	indent := displayWidth(string(file.Content[lineStart:start]))
	carets := max(displayWidth(string(file.Content[start:end])), 1)
	fmt.Fprintf(b, " %s %s %s%s\n", pad, pal.gutter.Sprint("|"),
		strings.Repeat(" ", indent), pal.caret.Sprint(strings.Repeat("^", carets)))
}

func writeDiagnostic(b *strings.Builder, d diag.Diagnostic, fs *source.FileSet, opts Options, pal palette) {
	where := ""
	if d.Path != "" {
		where = displayPath(d.Path, fs, opts.PathMode)
		if file := diagnosticFile(d, fs); file != nil {
			if pos, err := file.OffsetToLocation(d.Primary.Start); err == nil {
				where = fmt.Sprintf("%s:%d:%d", where, pos.Line, pos.Col)
			}
		}
	}
	label := pal.severity(d.Severity).Sprint(d.Severity.Label())
	if where != "" {
		fmt.Fprintf(b, "%s: %s %s: %s\n", pal.path.Sprint(where), label, d.Code.ID(), oneLine(d.Message))
	} else {
		fmt.Fprintf(b, "%s %s: %s\n", label, d.Code.ID(), oneLine(d.Message))
	}
	for _, n := range d.Notes {
		fmt.Fprintf(b, "  note: %s\n", oneLine(n.Msg))
	}
}

func summary(rep Report) string {
	if len(rep.Findings) == 0 {
		return fmt.Sprintf("no findings in %s", plural(rep.Files, "file"))
	}
	counts := map[diag.Severity]int{}
	for _, f := range rep.Findings {
		counts[f.Severity]++
	}
	return fmt.Sprintf("%s in %s (%d errors, %d warnings, %d info)",
		plural(len(rep.Findings), "finding"), plural(rep.Files, "file"),
		counts[diag.SevError], counts[diag.SevWarning], counts[diag.SevInfo])
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}
