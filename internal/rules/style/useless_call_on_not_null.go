package style

import (
	"fmt"

	"fortio.org/safecast"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/fix"
	"spotter/internal/rule"
	"spotter/internal/source"
	"spotter/internal/syntax"
)

const uselessCallDescription = "This call on a non-null reference may be reduced or removed. " +
	"Some calls are intended to be called on nullable collection or text types (e.g. `String?`). " +
	"When this call is used on a reference to a non-null type (e.g. `String`) it is redundant " +
	"and will have no effect, so it can be removed."

var uselessCallOnNotNull = rule.Registration{
	RuleSet:       RuleSet,
	ID:            "UselessCallOnNotNull",
	Description:   uselessCallDescription,
	DefaultActive: true,
	Factory: func(config.RuleConfig) (rule.Rule, error) {
		return UselessCallOnNotNull{}, nil
	},
}

// Calls that are redundant on a non-null receiver, with their replacement.
// An empty replacement means the call is removed.
var nullSafeCalls = map[string]string{
	"orEmpty":       "",
	"isNullOrEmpty": "isEmpty",
	"isNullOrBlank": "isBlank",
}

var notNullFactories = map[string]string{
	"listOfNotNull": "listOf",
	"setOfNotNull":  "setOf",
}

// UselessCallOnNotNull needs resolved types: without them every receiver
// type is unknown and nothing is reported.
type UselessCallOnNotNull struct{}

func (UselessCallOnNotNull) Meta() rule.Meta {
	return rule.Meta{
		ID:          "UselessCallOnNotNull",
		RuleSet:     RuleSet,
		Description: uselessCallDescription,
		Kinds: []syntax.Kind{
			syntax.KindDotQualified, syntax.KindSafeQualified, syntax.KindCall,
		},
		NeedsTypes:       true,
		SelfSuppressible: true,
		Autocorrect:      true,
	}
}

func (r UselessCallOnNotNull) Visit(ctx *rule.Context, id syntax.NodeID) {
	if !ctx.HasTypes() {
		return
	}
	switch ctx.Node(id).Kind {
	case syntax.KindDotQualified, syntax.KindSafeQualified:
		r.visitQualified(ctx, id)
	case syntax.KindCall:
		r.visitFactory(ctx, id)
	}
}

func (UselessCallOnNotNull) visitQualified(ctx *rule.Context, id syntax.NodeID) {
	tree := ctx.Tree()
	recv := tree.ChildByRole(id, syntax.RoleReceiver)
	sel := tree.ChildByRole(id, syntax.RoleSelector)
	if !recv.IsValid() || !sel.IsValid() || tree.Kind(sel) != syntax.KindCall {
		return
	}
	if !nonNull(tree.Node(recv)) {
		return
	}
	name := tree.Node(sel).Name
	replacement, ok := nullSafeCalls[name]
	if !ok {
		return
	}
	qualified := tree.Node(id).Span
	if replacement == "" {
		// от конца получателя до конца выражения: ".orEmpty()"
		cut := source.Span{File: qualified.File, Start: tree.Node(recv).Span.End, End: qualified.End}
		msg := fmt.Sprintf("Remove redundant call to %s", name)
		old, err := ctx.File.File.TextInRange(cut)
		if err != nil {
			// без исправления, если границы получателя не совпадают с текстом
			ctx.Report(id, msg)
			return
		}
		ctx.Report(id, msg, fix.DeleteSpan(fmt.Sprintf("Remove %s", name), cut, old))
		return
	}
	nameSpan := callNameSpan(ctx, sel)
	ctx.Report(id, fmt.Sprintf("Replace %s with %s", name, replacement),
		fix.ReplaceSpan(fmt.Sprintf("Replace with %s", replacement), nameSpan, replacement, name))
}

func (UselessCallOnNotNull) visitFactory(ctx *rule.Context, id syntax.NodeID) {
	tree := ctx.Tree()
	n := tree.Node(id)
	replacement, ok := notNullFactories[n.Name]
	if !ok || n.Role == syntax.RoleSelector {
		return
	}
	var args []syntax.NodeID
	for _, c := range tree.Children(id) {
		if tree.Node(c).Role == syntax.RoleArgument {
			args = append(args, c)
		}
	}
	if len(args) == 0 {
		return
	}
	for _, a := range args {
		if !nonNull(tree.Node(a)) {
			return
		}
	}
	ctx.Report(id, fmt.Sprintf("Replace %s with %s", n.Name, replacement),
		fix.ReplaceSpan(fmt.Sprintf("Replace with %s", replacement), callNameSpan(ctx, id), replacement, n.Name,
			fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics)))
}

func nonNull(n *syntax.Node) bool {
	return n.Type != nil && !n.Type.Nullable
}

// callNameSpan is the span of the callee name at the start of a call.
func callNameSpan(ctx *rule.Context, call syntax.NodeID) source.Span {
	sp := ctx.Node(call).Span
	n, err := safecast.Conv[uint32](len(ctx.Node(call).Name))
	if err != nil {
		return sp
	}
	return source.Span{File: sp.File, Start: sp.Start, End: min(sp.Start+n, sp.End)}
}
