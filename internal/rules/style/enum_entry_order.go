package style

import (
	"fmt"
	"slices"

	"spotter/internal/config"
	"spotter/internal/rule"
	"spotter/internal/syntax"
)

const enumEntryOrderDescription = "Enum entries should be declared in alphabetical order."

var enumEntryOrder = rule.Registration{
	RuleSet:     RuleSet,
	ID:          "EnumEntryOrder",
	Description: enumEntryOrderDescription,
	Schema: config.Schema{
		{
			Name:        "includeAnnotations",
			Kind:        config.KindStringList,
			Default:     []string{"io.gitlab.arturbosch.detekt.annotations.Alphabetical"},
			Description: "only enums with one of these annotations are checked; empty checks every enum",
		},
	},
	Factory: newEnumEntryOrder,
}

// EnumEntryOrder reports the first enum entry that is out of alphabetical
// order.
type EnumEntryOrder struct {
	include []string
}

func newEnumEntryOrder(cfg config.RuleConfig) (rule.Rule, error) {
	return &EnumEntryOrder{include: cfg.StringList("includeAnnotations")}, nil
}

func (*EnumEntryOrder) Meta() rule.Meta {
	return rule.Meta{
		ID:               "EnumEntryOrder",
		RuleSet:          RuleSet,
		Description:      enumEntryOrderDescription,
		Kinds:            []syntax.Kind{syntax.KindClass},
		SelfSuppressible: true,
	}
}

func (r *EnumEntryOrder) Visit(ctx *rule.Context, id syntax.NodeID) {
	if !r.selected(ctx.Node(id)) {
		return
	}
	tree := ctx.Tree()
	var entries []syntax.NodeID
	for e := range tree.Descendants(id, syntax.KindEnumEntry) {
		if tree.EnclosingOfKind(tree.Parent(e), syntax.KindClass, syntax.KindObject) == id {
			entries = append(entries, e)
		}
	}
	if len(entries) < 2 {
		return
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b syntax.NodeID) int {
		return rule.CompareNames(tree.Node(a).Name, tree.Node(b).Name)
	})
	for i, e := range entries {
		if e == sorted[i] {
			continue
		}
		ctx.ReportAt(id, tree.Node(e).Span, fmt.Sprintf(
			"Entries for enum `%s` are not declared in alphabetical order. Reorder so that `%s` is before `%s`.",
			ctx.Node(id).Name, tree.Node(sorted[i]).Name, tree.Node(e).Name))
		return
	}
}

func (r *EnumEntryOrder) selected(n *syntax.Node) bool {
	if len(r.include) == 0 {
		return true
	}
	for _, a := range n.Annotations {
		if slices.Contains(r.include, a.Name) || slices.Contains(r.include, a.ShortName()) {
			return true
		}
	}
	return false
}
