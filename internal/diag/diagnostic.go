package diag

import (
	"spotter/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the bytes covered by Span with NewText. OldText, when set,
// must match the current content for the edit to apply.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixApplicability tells the fix engine how safe an automatic edit is.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is a message about the run itself: rule crashes, configuration
// notifications, unreadable inputs. Style violations are finding.Finding.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	// Path is set when the diagnostic concerns a file but has no span
	// (configuration files, unreadable inputs).
	Path    string
	Primary source.Span
	Notes   []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// NewPathDiagnostic creates a diagnostic that points at a whole file.
func NewPathDiagnostic(sev Severity, code Code, path, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Path: path, Message: msg}
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
