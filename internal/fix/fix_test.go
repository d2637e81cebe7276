package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

func findingWith(file source.FileID, start, end uint32, rule string, fixes ...diag.Fix) finding.Finding {
	return finding.Finding{
		RuleID: rule,
		Entity: finding.Entity{Location: finding.Location{
			Span: source.Span{File: file, Start: start, End: end},
		}},
		Corrections: fixes,
	}
}

func TestBuilders(t *testing.T) {
	sp := source.Span{File: 0, Start: 9, End: 10}
	f := DeleteSpan("Remove semicolon", sp, ";", WithID("semi"), Preferred())
	if f.ID != "semi" || !f.IsPreferred {
		t.Fatalf("options not applied: %+v", f)
	}
	if len(f.Edits) != 1 || f.Edits[0].NewText != "" || f.Edits[0].OldText != ";" {
		t.Fatalf("unexpected edit: %+v", f.Edits)
	}

	ins := InsertText("Insert", source.Span{Start: 3, End: 7}, "x")
	if ins.Edits[0].Span.End != 3 {
		t.Errorf("insert span = %v, want empty at 3", ins.Edits[0].Span)
	}

	w := WrapWith("Add braces", source.Span{Start: 2, End: 5}, "{ ", " }")
	if w.Applicability != diag.FixApplicabilitySafeWithHeuristics || len(w.Edits) != 2 {
		t.Fatalf("WrapWith = %+v", w)
	}
	r := ReplaceSpan("Rename", sp, "x", ";", WithApplicability(diag.FixApplicabilityManualReview))
	if r.Applicability != diag.FixApplicabilityManualReview {
		t.Errorf("applicability = %v", r.Applicability)
	}
}

func TestApplyAllDryRun(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("val a = 1  \nval b = 2\t\n"))

	findings := []finding.Finding{
		findingWith(id, 9, 11, "TrailingWhitespace", DeleteSpan("Remove trailing whitespace", source.Span{File: id, Start: 9, End: 11}, "  ")),
		findingWith(id, 21, 22, "TrailingWhitespace", DeleteSpan("Remove trailing whitespace", source.Span{File: id, Start: 21, End: 22}, "\t")),
		// пересекается с первой правкой
		findingWith(id, 10, 11, "Other", ReplaceSpan("Rewrite", source.Span{File: id, Start: 10, End: 11}, "", " ")),
	}
	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %d, want 2 (%+v)", len(res.Applied), res.Skipped)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("changes = %+v", res.FileChanges)
	}
	if got := string(res.FileChanges[0].Content); got != "val a = 1\nval b = 2\n" {
		t.Errorf("content = %q", got)
	}
}

func TestApplyWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.kt")
	if err := os.WriteFile(path, []byte("if (a) b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fx := WrapWith("Add braces", source.Span{File: id, Start: 7, End: 8}, "{ ", " }")
	res, err := Apply(fs, []finding.Finding{findingWith(id, 0, 2, "Braces", fx)},
		ApplyOptions{Mode: ApplyModeAll, Unsafe: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.FileChanges[0].Path != "A.kt" || res.FileChanges[0].EditCount != 2 {
		t.Errorf("change = %+v", res.FileChanges[0])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "if (a) { b }\n" {
		t.Errorf("file = %q", data)
	}
}

func TestApplySelection(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("abc"))
	unsafe := ReplaceSpan("maybe", source.Span{File: id, Start: 0, End: 1}, "x", "a",
		WithApplicability(diag.FixApplicabilitySafeWithHeuristics), WithID("maybe"))
	safe := ReplaceSpan("safe", source.Span{File: id, Start: 2, End: 3}, "z", "c", WithID("safe"))
	findings := []finding.Finding{findingWith(id, 0, 1, "R", unsafe), findingWith(id, 2, 3, "R", safe)}

	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "safe" {
		t.Errorf("all: applied = %+v", res.Applied)
	}

	res, err = Apply(fs, findings, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied[0].ID != "safe" {
		t.Errorf("once: applied = %+v", res.Applied)
	}

	res, err = Apply(fs, findings, ApplyOptions{Mode: ApplyModeID, TargetID: "maybe", DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.FileChanges[0].Content) != "xbc" {
		t.Errorf("by id: content = %q", res.FileChanges[0].Content)
	}

	_, err = Apply(fs, findings, ApplyOptions{Mode: ApplyModeID, TargetID: "nope", DryRun: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestApplyRejectsVirtualWithoutDryRun(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("abc"))
	f := findingWith(id, 0, 1, "R", DeleteSpan("rm", source.Span{File: id, Start: 0, End: 1}, "a"))
	res, err := Apply(fs, []finding.Finding{f}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Errorf("skipped = %+v", res.Skipped)
	}
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	span := source.Span{Start: 0, End: 0}
	f := findingWith(0, 0, 0, "R",
		diag.Fix{ID: "dup", Title: "one", Edits: []diag.TextEdit{{Span: span, NewText: ";"}}},
		diag.Fix{ID: "dup", Title: "two", Edits: []diag.TextEdit{{Span: span, NewText: ";"}}},
		diag.Fix{Title: "empty"},
	)
	cands, skips := gatherCandidates([]finding.Finding{f})
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
	if len(skips) != 2 || skips[0].Reason != "duplicate fix id" || skips[1].Reason != "fix has no edits" {
		t.Fatalf("skips = %+v", skips)
	}
}

func TestSpansConflict(t *testing.T) {
	e := func(s, en uint32) diag.TextEdit { return diag.TextEdit{Span: source.Span{Start: s, End: en}} }
	tests := []struct {
		a, b diag.TextEdit
		want bool
	}{
		{e(0, 3), e(2, 5), true},
		{e(0, 3), e(3, 5), false},
		{e(2, 2), e(2, 2), false},
		{e(0, 4), e(2, 2), true},
		{e(0, 4), e(0, 0), false},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v, want %v", tt.a.Span, tt.b.Span, got, tt.want)
		}
	}
}
