package style

import (
	"fmt"
	"slices"
	"strings"

	"spotter/internal/config"
	"spotter/internal/rule"
	"spotter/internal/suppress"
	"spotter/internal/syntax"
)

const forbiddenSuppressDescription = "Suppressing a rule which is forbidden in current configuration."

var forbiddenSuppress = rule.Registration{
	RuleSet:     RuleSet,
	ID:          "ForbiddenSuppress",
	Description: forbiddenSuppressDescription,
	Schema: config.Schema{
		{Name: "rules", Kind: config.KindStringList, Default: []string{}, Description: "Rules which cannot be suppressed"},
	},
	Factory: newForbiddenSuppress,
}

// ForbiddenSuppress reports suppression annotations naming rules that the
// configuration does not allow to be suppressed. It ignores its own name in
// the list and cannot be silenced by naming itself.
type ForbiddenSuppress struct {
	rules []string
}

func newForbiddenSuppress(cfg config.RuleConfig) (rule.Rule, error) {
	rules := slices.DeleteFunc(cfg.StringList("rules"), func(name string) bool {
		return name == "ForbiddenSuppress" || strings.TrimSpace(name) == ""
	})
	return &ForbiddenSuppress{rules: rules}, nil
}

func (*ForbiddenSuppress) Meta() rule.Meta {
	return rule.Meta{
		ID:          "ForbiddenSuppress",
		RuleSet:     RuleSet,
		Description: forbiddenSuppressDescription,
		Kinds: []syntax.Kind{
			syntax.KindFile, syntax.KindClass, syntax.KindObject, syntax.KindEnumEntry,
			syntax.KindFunction, syntax.KindProperty, syntax.KindParameter,
			syntax.KindLambda, syntax.KindStatement, syntax.KindExpression, syntax.KindCall,
		},
		SelfSuppressible: false,
	}
}

func (r *ForbiddenSuppress) Visit(ctx *rule.Context, id syntax.NodeID) {
	if len(r.rules) == 0 {
		return
	}
	for _, a := range ctx.Node(id).Annotations {
		if !suppress.IsSuppressAnnotation(a) {
			continue
		}
		var named []string
		for _, arg := range a.Args {
			for _, name := range r.rules {
				if suppress.MatchesName(arg, name) && !slices.Contains(named, name) {
					named = append(named, name)
				}
			}
		}
		if len(named) == 0 {
			continue
		}
		ctx.ReportAt(id, a.Span, forbiddenSuppressMessage(named))
	}
}

func forbiddenSuppressMessage(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	noun := "rule"
	if len(names) > 1 {
		noun = "rules"
	}
	return fmt.Sprintf("Cannot @Suppress %s %s due to the current configuration.", noun, strings.Join(quoted, ", "))
}
