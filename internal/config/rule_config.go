package config

import (
	"slices"

	"spotter/internal/diag"
)

// RuleConfig is the immutable typed view of one rule's options after
// coercion and defaulting.
type RuleConfig struct {
	rule     string
	values   map[string]any
	explicit map[string]bool
}

// Empty returns a RuleConfig with no options at all. Rule factories never
// see it directly: OrDefaults replaces it with the schema defaults.
func Empty() RuleConfig {
	return RuleConfig{}
}

// IsEmpty reports whether c was not produced by Resolve.
func (c RuleConfig) IsEmpty() bool { return c.values == nil }

// OrDefaults returns c, or the defaults of schema when c is empty.
func (c RuleConfig) OrDefaults(ruleName string, schema Schema) (RuleConfig, error) {
	if !c.IsEmpty() {
		return c, nil
	}
	return Resolve(ruleName, nil, schema)
}

// Resolve builds the RuleConfig of ruleName from its raw option mapping.
// For every option of GenericOptions and schema the explicit value wins,
// then the value of the fallback option, then the default. A value that
// cannot be coerced yields a *ConfigTypeError.
func Resolve(ruleName string, raw map[string]any, schema Schema) (RuleConfig, error) {
	rc := RuleConfig{
		rule:     ruleName,
		values:   make(map[string]any, len(GenericOptions)+len(schema)),
		explicit: make(map[string]bool),
	}
	for _, opt := range slices.Concat(GenericOptions, schema) {
		name := opt.Name
		v, set := lookupSet(raw, opt.Name)
		if !set && opt.Fallback != "" {
			name = opt.Fallback
			v, set = lookupSet(raw, opt.Fallback)
		}
		if !set {
			if opt.Default == nil {
				rc.values[opt.Name] = zeroOf(opt.Kind)
				continue
			}
			v = opt.Default
		}
		decoded, err := decodeValue(v, opt.Kind)
		if err != nil {
			return RuleConfig{}, &ConfigTypeError{Rule: ruleName, Option: name, Value: v, Want: opt.Kind, Err: err}
		}
		rc.values[opt.Name] = decoded
		if set {
			rc.explicit[opt.Name] = true
		}
	}
	if _, err := diag.ParseSeverity(rc.String(KeySeverity)); err != nil {
		return RuleConfig{}, &ConfigTypeError{
			Rule: ruleName, Option: KeySeverity, Value: rc.values[KeySeverity], Want: KindString, Err: err,
		}
	}
	return rc, nil
}

// lookupSet treats a present key with a null value as not configured.
func lookupSet(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	return v, ok && v != nil
}

func zeroOf(k Kind) any {
	switch k {
	case KindString:
		return ""
	case KindInt:
		return 0
	case KindBool:
		return false
	case KindStringList:
		return []string{}
	case KindValuesWithReason:
		return []ValueWithReason{}
	}
	return nil
}

// Rule returns the name of the rule this config belongs to.
func (c RuleConfig) Rule() string { return c.rule }

// Has reports whether name was configured explicitly (directly or through
// its fallback option).
func (c RuleConfig) Has(name string) bool { return c.explicit[name] }

func (c RuleConfig) String(name string) string {
	s, _ := c.values[name].(string)
	return s
}

func (c RuleConfig) Int(name string) int {
	n, _ := c.values[name].(int)
	return n
}

func (c RuleConfig) Bool(name string) bool {
	b, _ := c.values[name].(bool)
	return b
}

// StringList returns a copy of a list option.
func (c RuleConfig) StringList(name string) []string {
	l, _ := c.values[name].([]string)
	return slices.Clone(l)
}

// ValuesWithReason returns a copy of a values-with-reason option.
func (c RuleConfig) ValuesWithReason(name string) []ValueWithReason {
	l, _ := c.values[name].([]ValueWithReason)
	return slices.Clone(l)
}

// Active is the rule-level active flag. An empty RuleConfig is active.
func (c RuleConfig) Active() bool {
	if v, ok := c.values[KeyActive].(bool); ok {
		return v
	}
	return true
}

// Severity is the configured severity, warning by default.
func (c RuleConfig) Severity() diag.Severity {
	sev, err := diag.ParseSeverity(c.String(KeySeverity))
	if err != nil {
		return diag.SevWarning
	}
	return sev
}

func (c RuleConfig) AutoCorrect() bool         { return c.Bool(KeyAutoCorrect) }
func (c RuleConfig) Aliases() []string         { return c.StringList(KeyAliases) }
func (c RuleConfig) IgnoreAnnotated() []string { return c.StringList(KeyIgnoreAnnotated) }
func (c RuleConfig) IgnoreFunction() []string  { return c.StringList(KeyIgnoreFunction) }
