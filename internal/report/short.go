package report

import (
	"fmt"
	"io"

	"spotter/internal/source"
)

// Short writes one line per finding: "path:line:col: RuleId message".
func Short(w io.Writer, rep Report, fs *source.FileSet, opts Options) error {
	for _, f := range rep.visible(opts) {
		loc := f.Location()
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s\n",
			displayPath(loc.Path, fs, opts.PathMode), loc.Start.Line, loc.Start.Col,
			f.RuleID, oneLine(f.Message)); err != nil {
			return err
		}
	}
	return nil
}
