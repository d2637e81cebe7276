package style

import (
	"fmt"
	"strings"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/fix"
	"spotter/internal/rule"
	"spotter/internal/source"
	"spotter/internal/syntax"
)

type bracePolicy string

const (
	braceAlways     bracePolicy = "always"
	braceConsistent bracePolicy = "consistent"
	braceNecessary  bracePolicy = "necessary"
	braceNever      bracePolicy = "never"
)

func parseBracePolicy(s string) (bracePolicy, error) {
	switch p := bracePolicy(s); p {
	case braceAlways, braceConsistent, braceNecessary, braceNever:
		return p, nil
	}
	return "", fmt.Errorf("unknown value %q, allowed values are: always|consistent|necessary|never", s)
}

func (p bracePolicy) message() string {
	switch p {
	case braceAlways:
		return "Missing braces on this branch, add them."
	case braceConsistent:
		return "Inconsistent braces, make sure all branches either have or don't have braces."
	case braceNecessary:
		return "Extra braces exist on this branch, remove them (ignore multi-statement)."
	default:
		return "Extra braces exist on this branch, remove them."
	}
}

const bracesDescription = "Braces do not comply with the specified policy"

var bracesOnIfStatements = rule.Registration{
	RuleSet:     RuleSet,
	ID:          "BracesOnIfStatements",
	Description: bracesDescription,
	Schema: config.Schema{
		{Name: "singleLine", Kind: config.KindString, Default: string(braceNever), Description: "single-line braces policy"},
		{Name: "multiLine", Kind: config.KindString, Default: string(braceAlways), Description: "multi-line braces policy"},
	},
	Factory: newBracesOnIfStatements,
}

// BracesOnIfStatements checks every if / else-if / else chain against the
// policy for its shape. A chain without line breaks is single-line.
type BracesOnIfStatements struct {
	singleLine bracePolicy
	multiLine  bracePolicy
}

func newBracesOnIfStatements(cfg config.RuleConfig) (rule.Rule, error) {
	single, err := parseBracePolicy(cfg.String("singleLine"))
	if err != nil {
		return nil, fmt.Errorf("singleLine: %w", err)
	}
	multi, err := parseBracePolicy(cfg.String("multiLine"))
	if err != nil {
		return nil, fmt.Errorf("multiLine: %w", err)
	}
	return &BracesOnIfStatements{singleLine: single, multiLine: multi}, nil
}

func (*BracesOnIfStatements) Meta() rule.Meta {
	return rule.Meta{
		ID:               "BracesOnIfStatements",
		RuleSet:          RuleSet,
		Description:      bracesDescription,
		Kinds:            []syntax.Kind{syntax.KindIf},
		SelfSuppressible: true,
	}
}

// branch is a then or else body together with the if that owns it.
type branch struct {
	owner syntax.NodeID
	body  syntax.NodeID
}

func (r *BracesOnIfStatements) Visit(ctx *rule.Context, id syntax.NodeID) {
	tree := ctx.Tree()
	// else-if обрабатывается вместе с начальным if
	if n := tree.Node(id); n.Role == syntax.RoleElse && tree.Kind(n.Parent) == syntax.KindIf {
		return
	}

	var branches []branch
	for cur := id; tree.Kind(cur) == syntax.KindIf; {
		if then := tree.ChildByRole(cur, syntax.RoleThen); then.IsValid() {
			branches = append(branches, branch{owner: cur, body: then})
		}
		els := tree.ChildByRole(cur, syntax.RoleElse)
		if els.IsValid() && !chainedElse(tree.Kind(els)) {
			branches = append(branches, branch{owner: cur, body: els})
		}
		cur = els
	}
	if len(branches) == 0 {
		return
	}

	policy := r.singleLine
	singleLine := !strings.Contains(ctx.Text(id), "\n")
	if !singleLine {
		policy = r.multiLine
	}

	var violators []branch
	switch policy {
	case braceAlways:
		for _, b := range branches {
			if !hasBraces(tree, b.body) {
				violators = append(violators, b)
			}
		}
	case braceNever:
		for _, b := range branches {
			if hasBraces(tree, b.body) {
				violators = append(violators, b)
			}
		}
	case braceNecessary:
		for _, b := range branches {
			if hasBraces(tree, b.body) && len(tree.Children(b.body)) <= 1 {
				violators = append(violators, b)
			}
		}
	case braceConsistent:
		braced := 0
		for _, b := range branches {
			if hasBraces(tree, b.body) {
				braced++
			}
		}
		if braced != 0 && braced != len(branches) {
			violators = branches[:1]
		}
	}
	if len(violators) == 0 {
		return
	}

	// одна находка на каждый if, владеющий нарушающими ветками
	var (
		owners []syntax.NodeID
		fixes  = map[syntax.NodeID][]diag.Fix{}
	)
	for _, v := range violators {
		if _, seen := fixes[v.owner]; !seen {
			owners = append(owners, v.owner)
			fixes[v.owner] = nil
		}
		if f, ok := r.correction(ctx, policy, singleLine, v.body); ok {
			fixes[v.owner] = append(fixes[v.owner], f)
		}
	}
	for _, owner := range owners {
		ctx.ReportAt(owner, ifKeyword(tree, owner), policy.message(), fixes[owner]...)
	}
}

func (r *BracesOnIfStatements) correction(ctx *rule.Context, policy bracePolicy, singleLine bool, body syntax.NodeID) (diag.Fix, bool) {
	tree := ctx.Tree()
	sp := tree.Node(body).Span
	switch policy {
	case braceAlways:
		if !singleLine {
			return diag.Fix{}, false
		}
		return fix.WrapWith("Add braces", sp, "{ ", " }"), true
	case braceNever, braceNecessary:
		stmts := tree.Children(body)
		if len(stmts) != 1 {
			return diag.Fix{}, false
		}
		return fix.ReplaceSpan("Remove braces", sp, ctx.Text(stmts[0]), ctx.Text(body),
			fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics)), true
	}
	return diag.Fix{}, false
}

// chainedElse reports else bodies that belong to the chain (else-if) or
// continue it in a larger expression; they are not branches of their own.
func chainedElse(k syntax.Kind) bool {
	switch k {
	case syntax.KindIf, syntax.KindDotQualified, syntax.KindSafeQualified:
		return true
	}
	return false
}

func hasBraces(tree *syntax.Tree, body syntax.NodeID) bool {
	return tree.Kind(body) == syntax.KindBlock
}

func ifKeyword(tree *syntax.Tree, id syntax.NodeID) source.Span {
	sp := tree.Node(id).Span
	return source.Span{File: sp.File, Start: sp.Start, End: min(sp.Start+2, sp.End)}
}
