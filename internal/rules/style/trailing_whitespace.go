package style

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"spotter/internal/config"
	"spotter/internal/fix"
	"spotter/internal/rule"
	"spotter/internal/syntax"
)

const trailingWhitespaceDescription = "Whitespaces at the end of a line are unnecessary and can be removed."

var trailingWhitespace = rule.Registration{
	RuleSet:     RuleSet,
	ID:          "TrailingWhitespace",
	Description: trailingWhitespaceDescription,
	Factory: func(config.RuleConfig) (rule.Rule, error) {
		return TrailingWhitespace{}, nil
	},
}

// TrailingWhitespace reports spaces and tabs before a line break. Lines
// inside raw strings are left alone since the whitespace is part of the
// value.
type TrailingWhitespace struct{}

func (TrailingWhitespace) Meta() rule.Meta {
	return rule.Meta{
		ID:               "TrailingWhitespace",
		RuleSet:          RuleSet,
		Description:      trailingWhitespaceDescription,
		SelfSuppressible: true,
		Autocorrect:      true,
	}
}

func (TrailingWhitespace) Visit(*rule.Context, syntax.NodeID) {}

func (TrailingWhitespace) VisitLines(ctx *rule.Context) {
	file := ctx.File.File
	for line := range file.Lines() {
		trimmed := strings.TrimRight(line.Text, " \t")
		if len(trimmed) == len(line.Text) {
			continue
		}
		n, err := safecast.Conv[uint32](len(line.Text) - len(trimmed))
		if err != nil {
			panic(fmt.Errorf("trailing whitespace length overflow: %w", err))
		}
		sp := line.Span(file.ID)
		sp.Start = sp.End - n
		if inRawString(ctx, sp.Start, sp.End) {
			continue
		}
		ctx.ReportSpan(sp, fmt.Sprintf("Line %d ends with a whitespace.", line.Number),
			fix.DeleteSpan("Remove trailing whitespace", sp, line.Text[len(trimmed):]))
	}
}
