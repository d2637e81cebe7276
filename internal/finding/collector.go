package finding

import (
	"slices"

	"github.com/samber/lo"
)

// Collector accumulates the findings of one file. It is append-only and not
// safe for concurrent use; each file gets its own.
type Collector struct {
	items []Finding
	seen  map[dedupKey]struct{}
	max   int
}

// NewCollector creates a Collector; max <= 0 means unlimited.
func NewCollector(max int) *Collector {
	return &Collector{max: max}
}

// Add appends f unless an identical finding was already added. Duplicates
// do not count against the limit. Returns false when f was dropped.
func (c *Collector) Add(f Finding) bool {
	key := keyOf(f)
	if _, dup := c.seen[key]; dup {
		return false
	}
	if c.max > 0 && len(c.items) >= c.max {
		return false
	}
	if c.seen == nil {
		c.seen = make(map[dedupKey]struct{})
	}
	c.seen[key] = struct{}{}
	c.items = append(c.items, f)
	return true
}

func (c *Collector) Len() int { return len(c.items) }

// Items returns a copy of the collected findings.
func (c *Collector) Items() []Finding {
	return slices.Clone(c.items)
}

// Sort orders findings with Compare; equal findings keep report order.
func (c *Collector) Sort() {
	slices.SortStableFunc(c.items, Compare)
}

type dedupKey struct {
	rule, path, msg string
	start, end      uint32
}

// Dedup drops findings with the same rule, span and message, keeping the
// first occurrence.
func (c *Collector) Dedup() {
	c.items = lo.UniqBy(c.items, keyOf)
}

func keyOf(f Finding) dedupKey {
	loc := f.Entity.Location
	return dedupKey{rule: f.RuleID, path: loc.Path, msg: f.Message, start: loc.Span.Start, end: loc.Span.End}
}

// Merge appends the findings of other, ignoring the limit.
func (c *Collector) Merge(other *Collector) {
	if other == nil || other == c {
		return
	}
	c.items = append(c.items, other.items...)
	for _, f := range other.items {
		if c.seen == nil {
			c.seen = make(map[dedupKey]struct{})
		}
		c.seen[keyOf(f)] = struct{}{}
	}
}

// Merge concatenates per-file finding lists and sorts the result.
func Merge(lists ...[]Finding) []Finding {
	out := slices.Concat(lists...)
	slices.SortStableFunc(out, Compare)
	return out
}

// CountByRule returns the number of findings per rule id.
func CountByRule(findings []Finding) map[string]int {
	return lo.CountValuesBy(findings, func(f Finding) string { return f.RuleID })
}
