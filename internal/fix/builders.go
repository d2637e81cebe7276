package fix

import (
	"spotter/internal/diag"
	"spotter/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// Preferred marks the fix as the preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets a stable identifier.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func build(title string, app diag.FixApplicability, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{Title: title, Applicability: app, Edits: edits}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText inserts text at the start of at.
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return build(title, diag.FixApplicabilityAlwaysSafe,
		[]diag.TextEdit{{Span: at, NewText: text}}, opts)
}

// DeleteSpan removes the text covered by span; expect guards against stale
// offsets.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return build(title, diag.FixApplicabilityAlwaysSafe,
		[]diag.TextEdit{{Span: span, OldText: expect}}, opts)
}

// ReplaceSpan replaces the text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(title, diag.FixApplicabilityAlwaysSafe,
		[]diag.TextEdit{{Span: span, NewText: newText, OldText: expect}}, opts)
}

// WrapWith surrounds span with prefix and suffix.
func WrapWith(title string, span source.Span, prefix, suffix string, opts ...Option) diag.Fix {
	edits := []diag.TextEdit{
		{Span: source.Span{File: span.File, Start: span.Start, End: span.Start}, NewText: prefix},
		{Span: source.Span{File: span.File, Start: span.End, End: span.End}, NewText: suffix},
	}
	return build(title, diag.FixApplicabilitySafeWithHeuristics, edits, opts)
}
