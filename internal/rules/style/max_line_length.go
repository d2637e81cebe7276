package style

import (
	"strings"
	"unicode/utf8"

	"spotter/internal/config"
	"spotter/internal/rule"
	"spotter/internal/syntax"
)

const maxLineLengthDescription = "Line detected, which is longer than the defined maximum line length in the code style."

var maxLineLength = rule.Registration{
	RuleSet:       RuleSet,
	ID:            "MaxLineLength",
	Description:   maxLineLengthDescription,
	DefaultActive: true,
	Schema: config.Schema{
		{Name: "maxLineLength", Kind: config.KindInt, Default: 120, Description: "maximum line length"},
		{Name: "excludePackageStatements", Kind: config.KindBool, Default: true, Description: "if package statements should be ignored"},
		{Name: "excludeImportStatements", Kind: config.KindBool, Default: true, Description: "if import statements should be ignored"},
		{Name: "excludeCommentStatements", Kind: config.KindBool, Default: false, Description: "if comment statements should be ignored"},
		{Name: "excludeRawStrings", Kind: config.KindBool, Default: true, Description: "if raw strings should be ignored"},
	},
	Factory: newMaxLineLength,
}

// MaxLineLength reports physical lines longer than the limit, counted in
// characters.
type MaxLineLength struct {
	max               int
	excludePackage    bool
	excludeImport     bool
	excludeComment    bool
	excludeRawStrings bool
}

func newMaxLineLength(cfg config.RuleConfig) (rule.Rule, error) {
	return &MaxLineLength{
		max:               cfg.Int("maxLineLength"),
		excludePackage:    cfg.Bool("excludePackageStatements"),
		excludeImport:     cfg.Bool("excludeImportStatements"),
		excludeComment:    cfg.Bool("excludeCommentStatements"),
		excludeRawStrings: cfg.Bool("excludeRawStrings"),
	}, nil
}

func (*MaxLineLength) Meta() rule.Meta {
	return rule.Meta{
		ID:               "MaxLineLength",
		RuleSet:          RuleSet,
		Description:      maxLineLengthDescription,
		SelfSuppressible: true,
	}
}

func (*MaxLineLength) Visit(*rule.Context, syntax.NodeID) {}

func (r *MaxLineLength) VisitLines(ctx *rule.Context) {
	file := ctx.File.File
	for line := range file.Lines() {
		if utf8.RuneCountInString(line.Text) <= r.max {
			continue
		}
		if r.excluded(line.Text) {
			continue
		}
		sp := line.Span(file.ID)
		if r.excludeRawStrings && inRawString(ctx, sp.Start, sp.End) {
			continue
		}
		ctx.ReportSpan(sp, maxLineLengthDescription)
	}
}

func (r *MaxLineLength) excluded(text string) bool {
	trimmed := strings.TrimSpace(text)
	switch {
	case r.excludePackage && strings.HasPrefix(trimmed, "package "):
		return true
	case r.excludeImport && strings.HasPrefix(trimmed, "import "):
		return true
	case r.excludeComment && (strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")):
		return true
	}
	return false
}
