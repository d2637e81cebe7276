// Package rule defines the contract between the engine and pluggable rules.
package rule

import (
	"spotter/internal/config"
	"spotter/internal/syntax"
)

// Meta describes a rule to the engine.
type Meta struct {
	ID          string
	RuleSet     string
	Description string
	Aliases     []string
	// Kinds lists the node kinds Visit is called for. Empty means no tree
	// visits (line or file rules only).
	Kinds []syntax.Kind
	// NeedsTypes rules are skipped on trees without semantic information.
	NeedsTypes bool
	// SelfSuppressible is false for rules that police suppression directives:
	// naming them in a directive does not silence them.
	SelfSuppressible bool
	// Autocorrect rules attach corrections and run before the others.
	Autocorrect bool
}

// Rule is one independent check. Visit is called once for every node whose
// kind is listed in Meta().Kinds, in pre-order. Not reporting is the
// no-violation case.
type Rule interface {
	Meta() Meta
	Visit(ctx *Context, id syntax.NodeID)
}

// LineRule is implemented by rules that also inspect physical lines. The
// pass runs after the tree traversal.
type LineRule interface {
	Rule
	VisitLines(ctx *Context)
}

// FileRule is implemented by rules that keep per-file state. BeginFile runs
// before the traversal and EndFile after the line pass; the rule instance is
// not shared between concurrently analysed files.
type FileRule interface {
	Rule
	BeginFile(ctx *Context)
	EndFile(ctx *Context)
}

// Factory creates a rule instance from its resolved configuration.
type Factory func(cfg config.RuleConfig) (Rule, error)
