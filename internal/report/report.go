package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

// Report is what one check produced: rule findings plus diagnostics about
// the run itself.
type Report struct {
	Findings    []finding.Finding
	Diagnostics []diag.Diagnostic
	// Files is the number of analysed files.
	Files int
}

// Write renders rep in format. fs resolves source lines and correction
// spans; it may be nil, in which case the pretty format omits snippets.
func Write(w io.Writer, format Format, rep Report, fs *source.FileSet, opts Options) error {
	switch format {
	case FormatShort:
		return Short(w, rep, fs, opts)
	case FormatPretty:
		return Pretty(w, rep, fs, opts)
	case FormatJSON:
		return JSON(w, rep, fs, opts)
	case FormatSARIF:
		return SARIF(w, rep, fs, opts)
	}
	return fmt.Errorf("report: unsupported format %s", format)
}

func (rep Report) visible(opts Options) []finding.Finding {
	if opts.Max > 0 && opts.Max < len(rep.Findings) {
		return rep.Findings[:opts.Max]
	}
	return rep.Findings
}

func displayPath(path string, fs *source.FileSet, mode PathMode) string {
	base := ""
	if fs != nil {
		base = fs.BaseDir()
	}
	f := source.File{Path: path}
	return filepath.ToSlash(f.FormatPath(mode.key(), base))
}

// fileOf returns the file loc points into, nil when fs does not hold it.
func fileOf(fs *source.FileSet, loc finding.Location) *source.File {
	if fs == nil {
		return nil
	}
	f := fs.Get(loc.Span.File)
	if f == nil || f.Path != loc.Path {
		return nil
	}
	return f
}

// diagnosticFile returns the file a path diagnostic's span points into, nil
// when the diagnostic only names a path.
func diagnosticFile(d diag.Diagnostic, fs *source.FileSet) *source.File {
	if fs == nil || d.Path == "" {
		return nil
	}
	f := fs.Get(d.Primary.File)
	if f == nil || f.Path != d.Path {
		return nil
	}
	return f
}

func oneLine(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	return strings.TrimSpace(strings.ReplaceAll(msg, "\n", " "))
}
