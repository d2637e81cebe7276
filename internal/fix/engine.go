// Package fix applies the corrections attached to findings.
package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines the selection strategy.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix, preferring always-safe ones.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix that does not conflict.
	ApplyModeAll
	// ApplyModeID applies the fix with ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected and written.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// Unsafe also selects fixes that need heuristics in ApplyModeAll.
	Unsafe bool
	// DryRun computes the new contents without writing files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	RuleID        string
	Message       string
	Applicability diag.FixApplicability
	Path          string
	EditCount     int
}

// SkippedFix captures a fix that was not applied and why.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises the modifications of one file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	finding finding.Finding
	fix     diag.Fix
	file    source.FileID
	order   int
}

// Apply collects the corrections of findings, selects a subset according to
// opts and applies it. Edits of one file never overlap: a fix conflicting
// with an already selected one is skipped.
func Apply(fs *source.FileSet, findings []finding.Finding, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(findings)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, skips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	if err := applyCandidates(fs, selected, opts, result); err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates flattens the corrections of findings. Fixes without edits
// and repeated IDs are skipped; missing IDs are synthesised from the rule
// and the finding position.
func gatherCandidates(findings []finding.Finding) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
		seen  = make(map[string]struct{})
	)
	for _, f := range findings {
		loc := f.Location()
		for idx, fx := range f.Corrections {
			if len(fx.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: fx.ID, Title: fx.Title, Reason: "fix has no edits"})
				continue
			}
			if fx.ID == "" {
				fx.ID = fmt.Sprintf("%s-%d-%d-%d", f.RuleID, loc.Span.File, loc.Span.Start, idx)
			}
			if _, dup := seen[fx.ID]; dup {
				skips = append(skips, SkippedFix{ID: fx.ID, Title: fx.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[fx.ID] = struct{}{}
			cands = append(cands, candidate{finding: f, fix: fx, file: loc.Span.File, order: len(cands)})
		}
	}
	return cands, skips
}

// sortCandidates orders by file, span, insertion order, rule, preference,
// id and title.
func sortCandidates(candidates []candidate) {
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		sa, sb := a.finding.Location().Span, b.finding.Location().Span
		return cmp.Or(
			cmp.Compare(a.file, b.file),
			cmp.Compare(sa.Start, sb.Start),
			cmp.Compare(sa.End, sb.End),
			cmp.Compare(a.order, b.order),
			cmp.Compare(a.finding.RuleID, b.finding.RuleID),
			boolFirst(a.fix.IsPreferred, b.fix.IsPreferred),
			cmp.Compare(a.fix.ID, b.fix.ID),
			cmp.Compare(a.fix.Title, b.fix.Title),
		)
	})
}

func boolFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		var (
			selected []candidate
			skipped  []SkippedFix
		)
		for _, cand := range candidates {
			switch app := cand.fix.Applicability; {
			case app == diag.FixApplicabilityAlwaysSafe,
				opts.Unsafe && app == diag.FixApplicabilitySafeWithHeuristics:
				selected = append(selected, cand)
			default:
				skipped = append(skipped, SkippedFix{
					ID:     cand.fix.ID,
					Title:  cand.fix.Title,
					Reason: fmt.Sprintf("applicability is %s", app),
				})
			}
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{cand}, nil
			}
		}
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

// applyCandidates stages the edits of every selected fix per file, drops
// conflicting fixes and writes each touched file once.
func applyCandidates(fs *source.FileSet, selected []candidate, opts ApplyOptions, result *ApplyResult) error {
	staged := make(map[source.FileID][]diag.TextEdit)
	var order []source.FileID

	for _, cand := range selected {
		file := fs.Get(cand.file)
		reason := ""
		switch {
		case file == nil:
			reason = "target file is unknown"
		case file.Flags&source.FileVirtual != 0 && !opts.DryRun:
			reason = "target file is virtual"
		default:
			reason = checkEdits(file, cand.fix.Edits, staged[cand.file])
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason})
			continue
		}
		if _, ok := staged[cand.file]; !ok {
			order = append(order, cand.file)
		}
		staged[cand.file] = append(staged[cand.file], cand.fix.Edits...)
		result.Applied = append(result.Applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			RuleID:        cand.finding.RuleID,
			Message:       cand.finding.Message,
			Applicability: cand.fix.Applicability,
			Path:          file.FormatPath("auto", fs.BaseDir()),
			EditCount:     len(cand.fix.Edits),
		})
	}

	for _, id := range order {
		file := fs.Get(id)
		content := rewrite(file.Content, staged[id])
		change := FileChange{Path: file.FormatPath("relative", fs.BaseDir()), EditCount: len(staged[id])}
		if opts.DryRun {
			change.Content = content
		} else {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, content, mode); err != nil {
				return fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		result.FileChanges = append(result.FileChanges, change)
	}
	slices.SortStableFunc(result.FileChanges, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })
	return nil
}

// checkEdits validates edits against the original content and the edits
// already staged for the file; it returns a skip reason or "".
func checkEdits(file *source.File, edits, staged []diag.TextEdit) string {
	for i, e := range edits {
		if e.Span.File != file.ID {
			return "fix spans several files"
		}
		if e.Span.End < e.Span.Start || e.Span.End > file.Len() {
			return "edit span out of range"
		}
		if e.OldText != "" && string(file.Content[e.Span.Start:e.Span.End]) != e.OldText {
			return "existing text does not match expected content"
		}
		for _, prev := range staged {
			if spansConflict(prev, e) {
				return "conflicts with previously applied edits in " + file.Path
			}
		}
		for _, other := range edits[:i] {
			if spansConflict(other, e) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// rewrite applies non-overlapping edits to content, last offset first.
func rewrite(content []byte, edits []diag.TextEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return cmp.Or(cmp.Compare(b.Span.Start, a.Span.Start), cmp.Compare(b.Span.End, a.Span.End))
	})
	out := slices.Clone(content)
	for _, e := range sorted {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}

// spansConflict reports whether two edits overlap. Spans are half-open; two
// insertions never conflict and an insertion conflicts with a span strictly
// containing its position.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End
	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return a.Span.Overlaps(b.Span)
}
