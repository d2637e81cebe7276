package observ

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// RuleReport is the accumulated cost of one rule over a run.
type RuleReport struct {
	Rule       string  `json:"rule"`
	DurationMS float64 `json:"duration_ms"`
	Files      int     `json:"files"`
	Findings   int     `json:"findings"`
}

type ruleStat struct {
	dur      time.Duration
	files    int
	findings int
}

// Profile accumulates per-rule execution time across files. It is safe for
// concurrent use; a nil Profile ignores every call.
type Profile struct {
	mu    sync.Mutex
	rules map[string]*ruleStat
}

// NewProfile creates an empty Profile.
func NewProfile() *Profile { return &Profile{rules: make(map[string]*ruleStat)} }

// Add records that rule spent d on one file and produced findings.
func (p *Profile) Add(rule string, d time.Duration, findings int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.rules[rule]
	if st == nil {
		st = &ruleStat{}
		p.rules[rule] = st
	}
	st.dur += d
	st.files++
	st.findings += findings
}

// Merge folds other into p.
func (p *Profile) Merge(other *Profile) {
	if p == nil || other == nil {
		return
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	for name, st := range other.rules {
		p.mu.Lock()
		dst := p.rules[name]
		if dst == nil {
			dst = &ruleStat{}
			p.rules[name] = dst
		}
		dst.dur += st.dur
		dst.files += st.files
		dst.findings += st.findings
		p.mu.Unlock()
	}
}

// Top returns the rules sorted by total time, slowest first; n <= 0 means all.
func (p *Profile) Top(n int) []RuleReport {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	out := make([]RuleReport, 0, len(p.rules))
	for name, st := range p.rules {
		out = append(out, RuleReport{
			Rule:       name,
			DurationMS: durationToMillis(st.dur),
			Files:      st.files,
			Findings:   st.findings,
		})
	}
	p.mu.Unlock()
	slices.SortFunc(out, func(a, b RuleReport) int {
		return cmp.Or(cmp.Compare(b.DurationMS, a.DurationMS), cmp.Compare(a.Rule, b.Rule))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
