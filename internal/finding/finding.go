// Package finding holds the reportable results of rules and the per-file
// collector that orders and deduplicates them.
package finding

import (
	"cmp"
	"fmt"
	"strings"

	"spotter/internal/diag"
	"spotter/internal/source"
	"spotter/internal/syntax"
)

// Location is a resolved source position: the byte span plus 1-based
// line/column of both ends.
type Location struct {
	Path  string         `json:"path"`
	Span  source.Span    `json:"span"`
	Start source.LineCol `json:"start"`
	End   source.LineCol `json:"end"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Start.Line, l.Start.Col)
}

// Entity is the source element a finding is attached to.
type Entity struct {
	Name      string   `json:"name"`
	Signature string   `json:"signature"`
	Location  Location `json:"location"`
}

// Finding is one rule violation. Findings are values and are never mutated
// after the rule reported them.
type Finding struct {
	RuleID      string        `json:"ruleId"`
	RuleSet     string        `json:"ruleSet"`
	Message     string        `json:"message"`
	Severity    diag.Severity `json:"severity"`
	Entity      Entity        `json:"entity"`
	Corrections []diag.Fix    `json:"corrections,omitempty"`
}

// Location is a shortcut for f.Entity.Location.
func (f Finding) Location() Location { return f.Entity.Location }

// Autocorrectable reports whether the finding carries at least one edit.
func (f Finding) Autocorrectable() bool {
	for _, c := range f.Corrections {
		if len(c.Edits) > 0 {
			return true
		}
	}
	return false
}

// NewLocation resolves span against file.
func NewLocation(file *source.File, span source.Span) (Location, error) {
	start, end, err := file.ResolveSpan(span)
	if err != nil {
		return Location{}, err
	}
	span.File = file.ID
	return Location{Path: file.Path, Span: span, Start: start, End: end}, nil
}

// NewEntity builds the entity for span, using node id (the element the
// finding belongs to) for the name and signature.
func NewEntity(sf *syntax.SourceFile, id syntax.NodeID, span source.Span) (Entity, error) {
	loc, err := NewLocation(sf.File, span)
	if err != nil {
		return Entity{}, err
	}
	name := ""
	if n := sf.Tree.Node(id); n != nil {
		name = n.Name
		if name == "" {
			name = n.Kind.String()
		}
	}
	return Entity{
		Name:      name,
		Signature: Signature(sf, id),
		Location:  loc,
	}, nil
}

// Signature returns "file:declarationPath:snippet", a key that stays stable
// while unrelated parts of the file change.
func Signature(sf *syntax.SourceFile, id syntax.NodeID) string {
	snippet := sf.Text(id)
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	snippet = strings.Join(strings.Fields(snippet), " ")
	return fmt.Sprintf("%s:%s:%s", source.BaseName(sf.Path()), sf.DeclarationPath(id), snippet)
}

// Compare orders findings by path, start offset, end offset, rule id and
// message.
func Compare(a, b Finding) int {
	la, lb := a.Entity.Location, b.Entity.Location
	return cmp.Or(
		cmp.Compare(la.Path, lb.Path),
		cmp.Compare(la.Span.Start, lb.Span.Start),
		cmp.Compare(la.Span.End, lb.Span.End),
		cmp.Compare(a.RuleID, b.RuleID),
		cmp.Compare(a.Message, b.Message),
	)
}
