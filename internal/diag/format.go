package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"spotter/internal/source"
)

// FormatShort renders diagnostics one per line as
// "severity CODE path:line:col message" (path-only diagnostics omit the
// position). Spans that cannot be resolved fall back to the bare path.
func FormatShort(diags []Diagnostic, fs *source.FileSet) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity.Label(), d.Code.ID(), location(d, fs), sanitizeMessage(d.Message))
	}
	return b.String()
}

func location(d Diagnostic, fs *source.FileSet) string {
	if d.Path != "" || fs == nil {
		return normalizePath(d.Path)
	}
	file := fs.Get(d.Primary.File)
	if file == nil {
		return "<unknown>"
	}
	path := normalizePath(file.FormatPath("relative", fs.BaseDir()))
	start, err := file.OffsetToLocation(d.Primary.Start)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
