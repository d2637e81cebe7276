// Package style holds the bundled style rules. Each rule is an ordinary
// plug-in: it is registered by Register and sees only the rule.Context the
// engine hands it.
package style

import (
	"strings"

	"spotter/internal/rule"
	"spotter/internal/syntax"
)

// RuleSet is the rule set id of every rule in this package.
const RuleSet = "style"

// Registrations returns the rules of the style set in registration order.
func Registrations() []rule.Registration {
	return []rule.Registration{
		bracesOnIfStatements,
		enumEntryOrder,
		forbiddenComment,
		forbiddenSuppress,
		maxLineLength,
		trailingWhitespace,
		uselessCallOnNotNull,
		wildcardImport,
	}
}

// Register adds the style rules to reg.
func Register(reg *rule.Registry) error {
	for _, r := range Registrations() {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// inRawString reports whether offset lies inside a multi-line raw string.
func inRawString(ctx *rule.Context, start, end uint32) bool {
	tree := ctx.Tree()
	id := tree.EnclosingOfKind(tree.InnermostAt(start, end), syntax.KindStringTemplate)
	return id.IsValid() && strings.HasPrefix(ctx.Text(id), `"""`)
}
