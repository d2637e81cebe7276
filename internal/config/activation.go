package config

import (
	"fmt"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilters holds one level of include/exclude globs.
type PathFilters struct {
	Includes []string
	Excludes []string
}

// Empty reports whether no pattern is configured.
func (f PathFilters) Empty() bool { return len(f.Includes) == 0 && len(f.Excludes) == 0 }

// Allows reports whether p (slash separated, relative to the base path)
// passes this level: no includes or an include matches, and no exclude
// matches. Excludes win over includes.
func (f PathFilters) Allows(p string) (bool, error) {
	excluded, err := matchAny(f.Excludes, p)
	if err != nil || excluded {
		return false, err
	}
	if len(f.Includes) == 0 {
		return true, nil
	}
	return matchAny(f.Includes, p)
}

func matchAny(patterns []string, p string) (bool, error) {
	p = path.Clean(p)
	for _, pat := range patterns {
		ok, err := doublestar.Match(pat, p)
		if err != nil {
			return false, fmt.Errorf("pattern %q: %w", pat, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Filters reads includes/excludes from a raw mapping. owner names the rule or
// rule set for error messages.
func Filters(owner string, raw map[string]any) (PathFilters, error) {
	var f PathFilters
	for _, key := range []string{KeyIncludes, KeyExcludes} {
		v, set := lookupSet(raw, key)
		if !set {
			continue
		}
		decoded, err := decodeValue(v, KindStringList)
		if err != nil {
			return PathFilters{}, &ConfigTypeError{Rule: owner, Option: key, Value: v, Want: KindStringList, Err: err}
		}
		if key == KeyIncludes {
			f.Includes = decoded.([]string)
		} else {
			f.Excludes = decoded.([]string)
		}
	}
	return f, nil
}

func activeFlag(owner string, raw map[string]any) (bool, error) {
	v, set := lookupSet(raw, KeyActive)
	if !set {
		return true, nil
	}
	decoded, err := decodeValue(v, KindBool)
	if err != nil {
		return false, &ConfigTypeError{Rule: owner, Option: KeyActive, Value: v, Want: KindBool, Err: err}
	}
	return decoded.(bool), nil
}

// Activation is the precomputed activity decision of one rule: both levels
// active and the path filters of the rule set and the rule.
type Activation struct {
	Active bool
	Levels []PathFilters
}

// Allows reports whether the rule runs on p. Patterns were validated when the
// Activation was built, so matching cannot fail.
func (a Activation) Allows(p string) bool {
	if !a.Active {
		return false
	}
	for _, f := range a.Levels {
		if ok, err := f.Allows(p); err != nil || !ok {
			return false
		}
	}
	return true
}

// Activation resolves the activity flags and path filters of ruleName in
// ruleSet. Malformed values and invalid globs are errors.
func (t *Tree) Activation(ruleSet, ruleName string) (Activation, error) {
	act := Activation{Active: true}
	for _, level := range []struct {
		owner string
		raw   map[string]any
	}{
		{ruleSet, t.RuleSet(ruleSet)},
		{ruleSet + ">" + ruleName, t.Rule(ruleSet, ruleName)},
	} {
		active, err := activeFlag(level.owner, level.raw)
		if err != nil {
			return Activation{}, err
		}
		act.Active = act.Active && active
		filters, err := Filters(level.owner, level.raw)
		if err != nil {
			return Activation{}, err
		}
		for _, pat := range slices.Concat(filters.Includes, filters.Excludes) {
			if !doublestar.ValidatePattern(pat) {
				return Activation{}, fmt.Errorf("%s: invalid glob pattern %q", level.owner, pat)
			}
		}
		if !filters.Empty() {
			act.Levels = append(act.Levels, filters)
		}
	}
	return act, nil
}

// IsActive decides whether ruleName of ruleSet runs on p. Both the rule set
// and the rule must be active (default true) and p must pass the path
// filters of both levels.
func (t *Tree) IsActive(ruleSet, ruleName, p string) (bool, error) {
	act, err := t.Activation(ruleSet, ruleName)
	if err != nil {
		return false, err
	}
	return act.Allows(p), nil
}
