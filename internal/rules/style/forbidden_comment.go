package style

import (
	"fmt"
	"regexp"
	"strings"

	"spotter/internal/config"
	"spotter/internal/rule"
	"spotter/internal/syntax"
)

const forbiddenCommentDescription = "Flags a forbidden comment."

var forbiddenComment = rule.Registration{
	RuleSet:       RuleSet,
	ID:            "ForbiddenComment",
	Description:   forbiddenCommentDescription,
	DefaultActive: true,
	Schema: config.Schema{
		{
			Name: "comments",
			Kind: config.KindValuesWithReason,
			Default: []config.ValueWithReason{
				{Value: "FIXME:", Reason: "Forbidden FIXME todo marker in comment, please fix the problem."},
				{Value: "STOPSHIP:", Reason: "Forbidden STOPSHIP todo marker in comment, please address the problem before shipping the code."},
				{Value: "TODO:", Reason: "Forbidden TODO todo marker in comment, please do the changes."},
			},
			Description: "forbidden comment patterns with an optional reason",
		},
		{Name: "allowedPatterns", Kind: config.KindString, Default: "", Description: "regex of comments that are always allowed"},
	},
	Factory: newForbiddenComment,
}

type forbiddenPattern struct {
	value  string
	reason string
	re     *regexp.Regexp
}

// ForbiddenComment reports comments whose content matches a forbidden
// pattern. Patterns are regular expressions matched anywhere in the comment.
type ForbiddenComment struct {
	patterns []forbiddenPattern
	allowed  *regexp.Regexp
}

func newForbiddenComment(cfg config.RuleConfig) (rule.Rule, error) {
	r := &ForbiddenComment{}
	for _, v := range cfg.ValuesWithReason("comments") {
		re, err := regexp.Compile("(?ms)" + v.Value)
		if err != nil {
			return nil, fmt.Errorf("comments: invalid pattern %q: %w", v.Value, err)
		}
		r.patterns = append(r.patterns, forbiddenPattern{value: v.Value, reason: v.Reason, re: re})
	}
	if allowed := cfg.String("allowedPatterns"); allowed != "" {
		re, err := regexp.Compile(allowed)
		if err != nil {
			return nil, fmt.Errorf("allowedPatterns: %w", err)
		}
		r.allowed = re
	}
	return r, nil
}

func (*ForbiddenComment) Meta() rule.Meta {
	return rule.Meta{
		ID:               "ForbiddenComment",
		RuleSet:          RuleSet,
		Description:      forbiddenCommentDescription,
		Kinds:            []syntax.Kind{syntax.KindComment},
		SelfSuppressible: true,
	}
}

func (r *ForbiddenComment) Visit(ctx *rule.Context, id syntax.NodeID) {
	text := ctx.Text(id)
	if r.allowed != nil && r.allowed.MatchString(text) {
		return
	}
	content := commentContent(text)
	for _, p := range r.patterns {
		if !p.re.MatchString(content) {
			continue
		}
		msg := p.reason
		if msg == "" {
			msg = fmt.Sprintf("This comment contains '%s' that has been defined as forbidden.", p.value)
		}
		ctx.Report(id, msg)
	}
}

// commentContent strips comment delimiters and the leading '*' of KDoc lines.
func commentContent(text string) string {
	if rest, ok := strings.CutPrefix(text, "//"); ok {
		return strings.TrimSpace(rest)
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
