package style

import (
	"fmt"
	"regexp"
	"strings"

	"spotter/internal/config"
	"spotter/internal/rule"
	"spotter/internal/syntax"
)

const wildcardDescription = "Wildcard imports should be replaced with imports using fully qualified class names."

var wildcardImport = rule.Registration{
	RuleSet:       RuleSet,
	ID:            "WildcardImport",
	Description:   wildcardDescription,
	DefaultActive: true,
	Schema: config.Schema{
		{Name: "excludeImports", Kind: config.KindStringList, Default: []string{}, Description: "wildcard imports that are allowed"},
	},
	Factory: newWildcardImport,
}

// WildcardImport reports every `import a.b.*` that is not excluded.
type WildcardImport struct {
	exclude []*regexp.Regexp
}

func newWildcardImport(cfg config.RuleConfig) (rule.Rule, error) {
	exclude, err := config.SimplePatterns(cfg.StringList("excludeImports"))
	if err != nil {
		return nil, fmt.Errorf("excludeImports: %w", err)
	}
	return &WildcardImport{exclude: exclude}, nil
}

func (*WildcardImport) Meta() rule.Meta {
	return rule.Meta{
		ID:               "WildcardImport",
		RuleSet:          RuleSet,
		Description:      wildcardDescription,
		Kinds:            []syntax.Kind{syntax.KindImportDirective},
		SelfSuppressible: true,
	}
}

func (r *WildcardImport) Visit(ctx *rule.Context, id syntax.NodeID) {
	path := importPath(ctx, id)
	if !strings.HasSuffix(path, ".*") {
		return
	}
	for _, re := range r.exclude {
		if re.MatchString(path) {
			return
		}
	}
	ctx.Report(id, fmt.Sprintf("%s is a wildcard import. Replace it with fully qualified imports.", path))
}

// importPath prefers the name supplied by the front end and falls back to
// the directive text.
func importPath(ctx *rule.Context, id syntax.NodeID) string {
	if name := ctx.Node(id).Name; name != "" {
		return name
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(id)), "import"))
	if i := strings.Index(text, " as "); i >= 0 {
		text = text[:i]
	}
	return strings.Join(strings.Fields(text), "")
}
