package report

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string                `json:"name"`
	Version string                `json:"version,omitempty"`
	Rules   []sarifRuleDescriptor `json:"rules,omitempty"`
}

type sarifRuleDescriptor struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	ShortDescription *sarifMessage  `json:"shortDescription,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Arguments           []string            `json:"arguments,omitempty"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Descriptor *sarifReference `json:"descriptor,omitempty"`
	Locations  []sarifLocation `json:"locations,omitempty"`
}

type sarifReference struct {
	ID string `json:"id"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           *int              `json:"ruleIndex,omitempty"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Fixes               []sarifFix        `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion   `json:"deletedRegion"`
	InsertedContent *sarifMessage `json:"insertedContent,omitempty"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// ruleKey is the identifier results refer to: "ruleSet/RuleId".
func ruleKey(ruleSet, id string) string {
	if ruleSet == "" {
		return id
	}
	return ruleSet + "/" + id
}

// SARIF writes a single-run SARIF 2.1.0 log. Rule descriptors come from
// opts.Rules plus any rule that reported without being listed there.
func SARIF(w io.Writer, rep Report, fs *source.FileSet, opts Options) error {
	shown := rep.visible(opts)
	descriptors, index := sarifRules(shown, opts)

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    cmp.Or(opts.ToolName, "spotter"),
			Version: opts.ToolVersion,
			Rules:   descriptors,
		}},
		Results: make([]sarifResult, 0, len(shown)),
	}
	inv := sarifInvocation{ExecutionSuccessful: true, Arguments: opts.InvocationArgs}
	for _, d := range rep.Diagnostics {
		if d.Severity == diag.SevError {
			inv.ExecutionSuccessful = false
		}
		n := sarifNotification{
			Level:      sarifLevel(d.Severity),
			Message:    sarifMessage{Text: oneLine(d.Message)},
			Descriptor: &sarifReference{ID: d.Code.ID()},
		}
		if d.Path != "" {
			n.Locations = []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: displayPath(d.Path, fs, opts.PathMode)},
			}}}
		}
		inv.Notifications = append(inv.Notifications, n)
	}
	run.Invocations = []sarifInvocation{inv}

	for _, f := range shown {
		key := ruleKey(f.RuleSet, f.RuleID)
		res := sarifResult{
			RuleID:    key,
			Level:     sarifLevel(f.Severity),
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLocation{findingLocation(f.Location(), fs, opts.PathMode)},
		}
		if i, ok := index[key]; ok {
			res.RuleIndex = &i
		}
		if f.Entity.Signature != "" {
			res.PartialFingerprints = map[string]string{"signature/v1": f.Entity.Signature}
		}
		for _, fx := range f.Corrections {
			if sf, ok := makeSarifFix(fx, fs, opts.PathMode); ok {
				res.Fixes = append(res.Fixes, sf)
			}
		}
		run.Results = append(run.Results, res)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}

func sarifRules(findings []finding.Finding, opts Options) ([]sarifRuleDescriptor, map[string]int) {
	var out []sarifRuleDescriptor
	seen := make(map[string]struct{})
	for _, m := range opts.Rules {
		key := ruleKey(m.RuleSet, m.ID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		d := sarifRuleDescriptor{ID: key, Name: m.ID}
		if m.Description != "" {
			d.ShortDescription = &sarifMessage{Text: m.Description}
		}
		props := map[string]any{"ruleSet": m.RuleSet}
		if len(m.Aliases) > 0 {
			props["aliases"] = m.Aliases
		}
		if m.Autocorrect {
			props["autocorrect"] = true
		}
		d.Properties = props
		out = append(out, d)
	}
	for _, f := range findings {
		key := ruleKey(f.RuleSet, f.RuleID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sarifRuleDescriptor{ID: key, Name: f.RuleID})
	}
	slices.SortFunc(out, func(a, b sarifRuleDescriptor) int { return cmp.Compare(a.ID, b.ID) })
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[d.ID] = i
	}
	return out, index
}

func findingLocation(loc finding.Location, fs *source.FileSet, mode PathMode) sarifLocation {
	return sarifLocation{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: displayPath(loc.Path, fs, mode)},
		Region: &sarifRegion{
			StartLine:   loc.Start.Line,
			StartColumn: loc.Start.Col,
			EndLine:     loc.End.Line,
			EndColumn:   loc.End.Col,
			ByteOffset:  loc.Span.Start,
			ByteLength:  loc.Span.Len(),
		},
	}}
}

func makeSarifFix(fx diag.Fix, fs *source.FileSet, mode PathMode) (sarifFix, bool) {
	if fs == nil || len(fx.Edits) == 0 {
		return sarifFix{}, false
	}
	changes := map[source.FileID]*sarifArtifactChange{}
	var order []source.FileID
	for _, edit := range fx.Edits {
		file := fs.Get(edit.Span.File)
		if file == nil {
			return sarifFix{}, false
		}
		ch, ok := changes[file.ID]
		if !ok {
			ch = &sarifArtifactChange{ArtifactLocation: sarifArtifactLocation{URI: displayPath(file.Path, fs, mode)}}
			changes[file.ID] = ch
			order = append(order, file.ID)
		}
		rep := sarifReplacement{DeletedRegion: sarifRegion{ByteOffset: edit.Span.Start, ByteLength: edit.Span.Len()}}
		if edit.NewText != "" {
			rep.InsertedContent = &sarifMessage{Text: edit.NewText}
		}
		ch.Replacements = append(ch.Replacements, rep)
	}
	out := sarifFix{Description: sarifMessage{Text: fx.Title}}
	for _, id := range order {
		out.ArtifactChanges = append(out.ArtifactChanges, *changes[id])
	}
	return out, true
}
