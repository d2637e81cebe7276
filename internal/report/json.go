package report

import (
	"encoding/json"
	"io"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

// LocationJSON is a resolved position in a file.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// FixEditJSON is one edit of a correction.
type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// FixJSON is a correction attached to a finding.
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

// FindingJSON is a rule finding.
type FindingJSON struct {
	RuleID    string       `json:"rule_id"`
	RuleSet   string       `json:"rule_set"`
	Severity  string       `json:"severity"`
	Message   string       `json:"message"`
	Entity    string       `json:"entity"`
	Signature string       `json:"signature"`
	Location  LocationJSON `json:"location"`
	Fixes     []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticJSON is a diagnostic about the run itself.
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
}

// Output is the root of the json report.
type Output struct {
	Findings    []FindingJSON    `json:"findings"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Files       int              `json:"files"`
}

func makeLocation(loc finding.Location, fs *source.FileSet, mode PathMode) LocationJSON {
	return LocationJSON{
		File:      displayPath(loc.Path, fs, mode),
		StartByte: loc.Span.Start,
		EndByte:   loc.Span.End,
		StartLine: loc.Start.Line,
		StartCol:  loc.Start.Col,
		EndLine:   loc.End.Line,
		EndCol:    loc.End.Col,
	}
}

// spanLocation resolves a span that is not part of a finding (edits and
// span-based diagnostics). ok is false when fs does not hold the file.
func spanLocation(span source.Span, fs *source.FileSet, mode PathMode) (LocationJSON, bool) {
	if fs == nil {
		return LocationJSON{}, false
	}
	file := fs.Get(span.File)
	if file == nil {
		return LocationJSON{}, false
	}
	loc, err := finding.NewLocation(file, span)
	if err != nil {
		return LocationJSON{File: displayPath(file.Path, fs, mode), StartByte: span.Start, EndByte: span.End}, true
	}
	return makeLocation(loc, fs, mode), true
}

// BuildOutput assembles the json report without serialising it.
func BuildOutput(rep Report, fs *source.FileSet, opts Options) Output {
	shown := rep.visible(opts)
	out := Output{
		Findings:    make([]FindingJSON, 0, len(shown)),
		Diagnostics: make([]DiagnosticJSON, 0, len(rep.Diagnostics)),
		Count:       len(rep.Findings),
		Files:       rep.Files,
	}
	for _, f := range shown {
		fj := FindingJSON{
			RuleID:    f.RuleID,
			RuleSet:   f.RuleSet,
			Severity:  f.Severity.Label(),
			Message:   f.Message,
			Entity:    f.Entity.Name,
			Signature: f.Entity.Signature,
			Location:  makeLocation(f.Location(), fs, opts.PathMode),
		}
		if opts.ShowFixes {
			for _, fx := range f.Corrections {
				fj.Fixes = append(fj.Fixes, makeFix(fx, fs, opts))
			}
		}
		out.Findings = append(out.Findings, fj)
	}
	for _, d := range rep.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, makeDiagnostic(d, fs, opts))
	}
	return out
}

func makeFix(fx diag.Fix, fs *source.FileSet, opts Options) FixJSON {
	fj := FixJSON{
		ID:            fx.ID,
		Title:         fx.Title,
		Applicability: fx.Applicability.String(),
		IsPreferred:   fx.IsPreferred,
	}
	for _, edit := range fx.Edits {
		loc, _ := spanLocation(edit.Span, fs, opts.PathMode)
		ej := FixEditJSON{Location: loc, NewText: edit.NewText, OldText: edit.OldText}
		if opts.ShowPreview {
			if preview, err := buildEditPreview(fs, edit); err == nil {
				ej.BeforeLines = preview.before
				ej.AfterLines = preview.after
			}
		}
		fj.Edits = append(fj.Edits, ej)
	}
	return fj
}

func makeDiagnostic(d diag.Diagnostic, fs *source.FileSet, opts Options) DiagnosticJSON {
	dj := DiagnosticJSON{
		Severity: d.Severity.Label(),
		Code:     d.Code.ID(),
		Message:  d.Message,
	}
	if d.Path != "" {
		loc := LocationJSON{File: displayPath(d.Path, fs, opts.PathMode)}
		if diagnosticFile(d, fs) != nil {
			loc, _ = spanLocation(d.Primary, fs, opts.PathMode)
		}
		dj.Location = &loc
	}
	for _, n := range d.Notes {
		dj.Notes = append(dj.Notes, n.Msg)
	}
	return dj
}

// JSON writes the report as indented json.
func JSON(w io.Writer, rep Report, fs *source.FileSet, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildOutput(rep, fs, opts))
}
