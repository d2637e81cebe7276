package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"spotter/internal/diag"
)

// Notification is one finding of configuration validation.
type Notification struct {
	Code     diag.Code
	Severity diag.Severity
	Property string // ruleSet>rule>option
	Message  string
}

// Diagnostic converts n into a path diagnostic for the config file at path.
func (n Notification) Diagnostic(path string) diag.Diagnostic {
	return diag.NewPathDiagnostic(n.Severity, n.Code, path, n.Message)
}

// metaSections are top-level keys that configure the tool rather than rules.
var metaSections = []string{"config"}

// Validate compares user against baseline (the defaults of every registered
// rule) and reports unknown properties, misplaced nesting, comma separated
// strings where a list is expected, and patterns that are both included and
// excluded at the same level. Generic keys are always allowed.
func Validate(user, baseline *Tree) []Notification {
	var out []Notification
	for _, setName := range user.Keys() {
		if slices.Contains(metaSections, setName) {
			continue
		}
		baseSet, known := baseline.Raw()[setName]
		if !known {
			out = append(out, doesNotExist(setName))
			continue
		}
		setRaw, ok := user.Raw()[setName].(map[string]any)
		if !ok {
			out = append(out, nestedExpected(setName))
			continue
		}
		baseSetRaw, _ := baseSet.(map[string]any)
		out = append(out, conflictingPatterns(setName, setRaw)...)
		for _, key := range sortedKeys(setRaw) {
			prop := setName + ">" + key
			if key == KeyActive || key == KeyIncludes || key == KeyExcludes || key == KeySeverity {
				out = append(out, checkList(prop, key, setRaw[key])...)
				continue
			}
			baseRule, known := baseSetRaw[key]
			if !known {
				out = append(out, doesNotExist(prop))
				continue
			}
			ruleRaw, ok := setRaw[key].(map[string]any)
			if !ok {
				out = append(out, nestedExpected(prop))
				continue
			}
			baseRuleRaw, _ := baseRule.(map[string]any)
			out = append(out, validateRule(prop, ruleRaw, baseRuleRaw)...)
		}
	}
	return out
}

func validateRule(prop string, ruleRaw, baseRuleRaw map[string]any) []Notification {
	out := conflictingPatterns(prop, ruleRaw)
	for _, opt := range sortedKeys(ruleRaw) {
		optProp := prop + ">" + opt
		v := ruleRaw[opt]
		if IsGenericKey(opt) {
			out = append(out, checkList(optProp, opt, v)...)
			continue
		}
		baseV, known := baseRuleRaw[opt]
		if !known {
			out = append(out, doesNotExist(optProp))
			continue
		}
		if _, nested := v.(map[string]any); nested {
			out = append(out, Notification{
				Code:     diag.ConfigNestedExpected,
				Severity: diag.SevError,
				Property: optProp,
				Message:  fmt.Sprintf("Unexpected nested config for '%s'.", optProp),
			})
			continue
		}
		if _, isString := v.(string); isString && isList(baseV) {
			out = append(out, shouldBeArray(optProp))
		}
	}
	return out
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string, []ValueWithReason:
		return true
	}
	return false
}

func checkList(prop, key string, v any) []Notification {
	if key != KeyIncludes && key != KeyExcludes {
		return nil
	}
	if _, isString := v.(string); isString {
		return []Notification{shouldBeArray(prop)}
	}
	return nil
}

func conflictingPatterns(owner string, raw map[string]any) []Notification {
	filters, err := Filters(owner, raw)
	if err != nil {
		return []Notification{{
			Code:     diag.ConfigTypeMismatch,
			Severity: diag.SevError,
			Property: owner,
			Message:  err.Error(),
		}}
	}
	var out []Notification
	for _, p := range slices.Concat(filters.Includes, filters.Excludes) {
		if !doublestar.ValidatePattern(p) {
			out = append(out, Notification{
				Code:     diag.ConfigInvalidPattern,
				Severity: diag.SevError,
				Property: owner,
				Message:  fmt.Sprintf("Pattern '%s' in '%s' is not a valid glob.", p, owner),
			})
		}
	}
	for _, p := range filters.Includes {
		if slices.Contains(filters.Excludes, p) {
			out = append(out, Notification{
				Code:     diag.ConfigConflictingPattern,
				Severity: diag.SevWarning,
				Property: owner,
				Message:  fmt.Sprintf("Pattern '%s' in '%s' is both included and excluded; it is excluded.", p, owner),
			})
		}
	}
	return out
}

func doesNotExist(prop string) Notification {
	return Notification{
		Code:     diag.ConfigUnknownProperty,
		Severity: diag.SevError,
		Property: prop,
		Message:  fmt.Sprintf("Property '%s' is misspelled or does not exist.", prop),
	}
}

func nestedExpected(prop string) Notification {
	return Notification{
		Code:     diag.ConfigNestedExpected,
		Severity: diag.SevError,
		Property: prop,
		Message:  fmt.Sprintf("Nested config expected for '%s'.", prop),
	}
}

func shouldBeArray(prop string) Notification {
	return Notification{
		Code:     diag.ConfigTypeMismatch,
		Severity: diag.SevWarning,
		Property: prop,
		Message:  fmt.Sprintf("Property '%s' should be a YAML array instead of a comma-separated String.", prop),
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
