package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Tree is the raw rule configuration: a nested mapping laid out as
// ruleSet -> rule -> option. It is read-only once loaded.
type Tree struct {
	root map[string]any
}

// EmptyTree is a Tree without any entries.
var EmptyTree = &Tree{root: map[string]any{}}

// NewTree wraps m. The map must not be modified afterwards.
func NewTree(m map[string]any) *Tree {
	if m == nil {
		m = map[string]any{}
	}
	return &Tree{root: m}
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Tree, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return NewTree(normalize(m).(map[string]any)), nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Tree, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// normalize turns map[any]any from nested YAML nodes into map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// Raw returns the underlying mapping. Callers must not modify it.
func (t *Tree) Raw() map[string]any { return t.root }

// Keys returns the top-level keys in sorted order.
func (t *Tree) Keys() []string {
	return slices.Sorted(maps.Keys(t.root))
}

// RuleSet returns the mapping of ruleSet, or nil.
func (t *Tree) RuleSet(ruleSet string) map[string]any {
	m, _ := t.root[ruleSet].(map[string]any)
	return m
}

// Rule returns the option mapping of ruleSet/rule, or nil.
func (t *Tree) Rule(ruleSet, rule string) map[string]any {
	m, _ := t.RuleSet(ruleSet)[rule].(map[string]any)
	return m
}

// Merge returns a new Tree with over layered on top of t. Nested maps are
// merged recursively; any other value in over replaces the one in t.
func (t *Tree) Merge(over *Tree) *Tree {
	if over == nil {
		return t
	}
	return NewTree(mergeMaps(t.root, over.root))
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	maps.Copy(out, base)
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = mergeMaps(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// Hash returns a stable digest of the configuration, used as part of cache
// keys. encoding/json writes map keys sorted, which makes the digest
// independent of map iteration order.
func (t *Tree) Hash() string {
	data, err := json.Marshal(t.root)
	if err != nil {
		// значения из YAML всегда сериализуемы
		panic(fmt.Errorf("config hash: %w", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// YAML renders the tree back to YAML.
func (t *Tree) YAML() ([]byte, error) {
	return yaml.Marshal(t.root)
}
