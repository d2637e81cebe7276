package rule

import (
	"fmt"
	"slices"

	"spotter/internal/config"
)

// Registration ties a rule id to its factory and option schema.
type Registration struct {
	RuleSet       string
	ID            string
	Description   string
	Schema        config.Schema
	DefaultActive bool
	Factory       Factory
}

// Key returns "ruleSet/id".
func (r Registration) Key() string { return r.RuleSet + "/" + r.ID }

// New instantiates the rule. An empty configuration is replaced by the
// schema defaults, so New(config.Empty()) yields the default rule.
func (r Registration) New(cfg config.RuleConfig) (Rule, error) {
	cfg, err := cfg.OrDefaults(r.ID, r.Schema)
	if err != nil {
		return nil, err
	}
	return r.Factory(cfg)
}

// Registry is an explicit set of available rules. It is built once at
// startup and passed to the engine; there is no global registry.
type Registry struct {
	entries []Registration
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds reg. Duplicate keys and missing factories are errors.
func (r *Registry) Register(reg Registration) error {
	if reg.RuleSet == "" || reg.ID == "" {
		return fmt.Errorf("rule registration needs a rule set and an id: %q/%q", reg.RuleSet, reg.ID)
	}
	if reg.Factory == nil {
		return fmt.Errorf("rule %s has no factory", reg.Key())
	}
	if _, dup := r.index[reg.Key()]; dup {
		return fmt.Errorf("rule %s registered twice", reg.Key())
	}
	base := reg
	reg.Factory = base.New
	r.index[reg.Key()] = len(r.entries)
	r.entries = append(r.entries, reg)
	return nil
}

// MustRegister is Register for static rule sets; it panics on error.
func (r *Registry) MustRegister(regs ...Registration) *Registry {
	for _, reg := range regs {
		if err := r.Register(reg); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup finds a registration by rule set and id.
func (r *Registry) Lookup(ruleSet, id string) (Registration, bool) {
	i, ok := r.index[ruleSet+"/"+id]
	if !ok {
		return Registration{}, false
	}
	return r.entries[i], true
}

// All returns the registrations ordered by rule set, then id.
func (r *Registry) All() []Registration {
	out := slices.Clone(r.entries)
	slices.SortStableFunc(out, func(a, b Registration) int {
		if c := CompareNames(a.RuleSet, b.RuleSet); c != 0 {
			return c
		}
		return CompareNames(a.ID, b.ID)
	})
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.entries) }

// Defaults renders the baseline configuration: every rule set active, every
// rule with its default activation and option defaults. User configuration
// is merged on top of it and validated against it.
func (r *Registry) Defaults() *config.Tree {
	root := map[string]any{}
	for _, reg := range r.All() {
		set, ok := root[reg.RuleSet].(map[string]any)
		if !ok {
			set = map[string]any{config.KeyActive: true}
			root[reg.RuleSet] = set
		}
		opts := map[string]any{config.KeyActive: reg.DefaultActive}
		for _, o := range reg.Schema {
			// ключ нужен даже без значения, иначе валидация сочтёт опцию неизвестной
			opts[o.Name] = o.Default
		}
		set[reg.ID] = opts
	}
	return config.NewTree(root)
}
