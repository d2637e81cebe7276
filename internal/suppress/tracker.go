// Package suppress decides whether a finding is silenced by a suppression
// annotation on the element or one of its ancestors.
package suppress

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"spotter/internal/syntax"
)

// Canonical names of the annotations that carry suppression directives.
var suppressAnnotations = []string{
	"Suppress",
	"kotlin.Suppress",
	"SuppressWarnings",
	"java.lang.SuppressWarnings",
}

// IsSuppressAnnotation reports whether a carries suppression directives.
func IsSuppressAnnotation(a syntax.Annotation) bool {
	return slices.Contains(suppressAnnotations, a.Name)
}

// prefixes accepted in front of a rule name; anything else (Checkstyle:,
// detekt/) never matches.
var prefixes = []string{"", "detekt:", "detekt.", "spotter:", "spotter."}

// Rule is the identity a directive is matched against.
type Rule struct {
	ID      string
	RuleSet string
	Aliases []string
	// SelfSuppressible is false for rules that police suppression itself:
	// a directive naming the rule does not silence it.
	SelfSuppressible bool
}

// Tracker answers suppression queries for one tree. It caches the folded
// directive values per node and is not safe for concurrent use.
type Tracker struct {
	tree  *syntax.Tree
	fold  cases.Caser
	cache map[syntax.NodeID][]string
}

func NewTracker(tree *syntax.Tree) *Tracker {
	return &Tracker{
		tree:  tree,
		fold:  cases.Fold(),
		cache: make(map[syntax.NodeID][]string),
	}
}

// Directives returns the suppression values declared directly on id, case
// folded.
func (t *Tracker) Directives(id syntax.NodeID) []string {
	if v, ok := t.cache[id]; ok {
		return v
	}
	var out []string
	if n := t.tree.Node(id); n != nil {
		for _, a := range n.Annotations {
			if !IsSuppressAnnotation(a) {
				continue
			}
			for _, arg := range a.Args {
				out = append(out, t.fold.String(strings.TrimSpace(arg)))
			}
		}
	}
	t.cache[id] = out
	return out
}

// IsSuppressed walks from id up to the root and reports whether any node on
// the way suppresses r. Directives accumulate; an inner node cannot undo an
// outer suppression.
func (t *Tracker) IsSuppressed(r Rule, id syntax.NodeID) bool {
	if t.suppressedAt(r, id) {
		return true
	}
	for p := range t.tree.Ancestors(id) {
		if t.suppressedAt(r, p) {
			return true
		}
	}
	return false
}

// FileSuppressed reports whether r is suppressed for the whole file, that is
// on the root node.
func (t *Tracker) FileSuppressed(r Rule) bool {
	return t.suppressedAt(r, t.tree.Root())
}

func (t *Tracker) suppressedAt(r Rule, id syntax.NodeID) bool {
	dirs := t.Directives(id)
	if len(dirs) == 0 {
		return false
	}
	self := t.names(slices.Concat([]string{r.ID}, r.Aliases)...)
	others := t.names("all", r.RuleSet)
	for _, d := range dirs {
		if matchesAny(d, others) {
			return true
		}
		if r.SelfSuppressible && matchesAny(d, self) {
			return true
		}
	}
	return false
}

func (t *Tracker) names(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, t.fold.String(n))
		}
	}
	return out
}

func matchesAny(directive string, names []string) bool {
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(directive, p)
		if !ok {
			continue
		}
		if slices.Contains(names, rest) {
			return true
		}
	}
	return false
}

// MatchesName reports whether a directive value names rule name exactly,
// accepting the tool prefixes. "all" and rule sets are not expanded.
func MatchesName(directive, name string) bool {
	fold := cases.Fold()
	return matchesAny(fold.String(strings.TrimSpace(directive)), []string{fold.String(name)})
}

// Matches reports whether a single directive value suppresses r, ignoring
// the self-suppression exception. Used by rules that inspect directives.
func Matches(directive string, r Rule) bool {
	for _, n := range slices.Concat([]string{"all", r.ID, r.RuleSet}, r.Aliases) {
		if n != "" && MatchesName(directive, n) {
			return true
		}
	}
	return false
}
