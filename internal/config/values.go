package config

import (
	"errors"
	"fmt"
)

// ValueWithReason is one entry of a values-with-reason option, for example a
// forbidden comment marker and the reason it is forbidden.
type ValueWithReason struct {
	Value  string
	Reason string
}

// Message renders "value: reason", or just the value when no reason is set.
func (v ValueWithReason) Message() string {
	if v.Reason == "" {
		return v.Value
	}
	return v.Value + ": " + v.Reason
}

// decodeValuesWithReason accepts a list whose entries are either plain
// strings or mappings with a string "value" and an optional string "reason".
func decodeValuesWithReason(v any) ([]ValueWithReason, error) {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	case []ValueWithReason:
		return append([]ValueWithReason{}, x...), nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}

	out := make([]ValueWithReason, 0, len(items))
	for i, item := range items {
		switch e := item.(type) {
		case string:
			out = append(out, ValueWithReason{Value: e})
		case ValueWithReason:
			out = append(out, e)
		case map[string]any:
			raw, ok := e["value"]
			if !ok {
				return nil, fmt.Errorf("entry %d: missing 'value'", i)
			}
			value, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d: 'value' must be a string, got %T", i, raw)
			}
			var reason string
			if r, ok := e["reason"]; ok && r != nil {
				if reason, ok = r.(string); !ok {
					return nil, fmt.Errorf("entry %d: 'reason' must be a string, got %T", i, r)
				}
			}
			out = append(out, ValueWithReason{Value: value, Reason: reason})
		default:
			return nil, errors.New("entries must be strings or {value, reason} mappings")
		}
	}
	return out, nil
}
