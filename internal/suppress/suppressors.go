package suppress

import (
	"regexp"
	"slices"

	"spotter/internal/config"
	"spotter/internal/syntax"
)

// Suppressor drops findings attached to a node. Suppressors are built per
// rule from its configuration.
type Suppressor func(id syntax.NodeID) bool

// AnnotatedSuppressor silences findings inside elements annotated with one of
// names. A name matches the canonical annotation name or its last segment.
func AnnotatedSuppressor(tree *syntax.Tree, names []string) Suppressor {
	if len(names) == 0 {
		return nil
	}
	annotated := func(id syntax.NodeID) bool {
		for _, a := range tree.Node(id).Annotations {
			if slices.Contains(names, a.Name) || slices.Contains(names, a.ShortName()) {
				return true
			}
		}
		return false
	}
	return func(id syntax.NodeID) bool {
		if tree.Node(id) == nil {
			return false
		}
		if annotated(id) {
			return true
		}
		for p := range tree.Ancestors(id) {
			if annotated(p) {
				return true
			}
		}
		return false
	}
}

// FunctionSuppressor silences findings inside functions whose name matches
// one of patterns.
func FunctionSuppressor(tree *syntax.Tree, patterns []*regexp.Regexp) Suppressor {
	if len(patterns) == 0 {
		return nil
	}
	return func(id syntax.NodeID) bool {
		for cur := tree.EnclosingOfKind(id, syntax.KindFunction); cur.IsValid(); {
			name := tree.Node(cur).Name
			for _, re := range patterns {
				if re.MatchString(name) {
					return true
				}
			}
			cur = tree.EnclosingOfKind(tree.Parent(cur), syntax.KindFunction)
		}
		return false
	}
}

// Build returns the suppressors configured for a rule through
// ignoreAnnotated and ignoreFunction.
func Build(tree *syntax.Tree, rc config.RuleConfig) ([]Suppressor, error) {
	var out []Suppressor
	if s := AnnotatedSuppressor(tree, rc.IgnoreAnnotated()); s != nil {
		out = append(out, s)
	}
	patterns, err := config.SimplePatterns(rc.IgnoreFunction())
	if err != nil {
		return nil, err
	}
	if s := FunctionSuppressor(tree, patterns); s != nil {
		out = append(out, s)
	}
	return out, nil
}

// Any reports whether one of ss suppresses id.
func Any(ss []Suppressor, id syntax.NodeID) bool {
	for _, s := range ss {
		if s(id) {
			return true
		}
	}
	return false
}
