// Package engine runs the configured rules over syntax trees: one pre-order
// traversal per file dispatching nodes to the rules interested in their
// kind, then the line pass and the end-of-file hooks.
package engine

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/observ"
	"spotter/internal/rule"
	"spotter/internal/source"
	"spotter/internal/suppress"
	"spotter/internal/syntax"
	"spotter/internal/trace"
)

// Options tune an Engine.
type Options struct {
	// BasePath is the directory include/exclude globs are relative to.
	// Empty means paths are matched as given.
	BasePath string
	// MaxFindings caps findings per file; <= 0 means unlimited.
	MaxFindings int
	// Profile, when set, accumulates per-rule execution time.
	Profile *observ.Profile
}

// entry is a rule resolved once per run.
type entry struct {
	reg        rule.Registration
	cfg        config.RuleConfig
	meta       rule.Meta
	activation config.Activation
	ident      suppress.Rule
	severity   diag.Severity
	dropFixes  bool
}

func (en *entry) key() string { return en.meta.RuleSet + "/" + en.meta.ID }

// Engine holds the resolved, active rules. It is immutable after New and
// may run files concurrently: every Run creates fresh rule instances.
type Engine struct {
	entries []entry
	config  *config.Tree
	opts    Options
}

// New resolves the configuration of every registered rule against user
// (merged over the registry defaults) and keeps the active ones. Any
// configuration problem is returned here, before a file is analysed.
func New(reg *rule.Registry, user *config.Tree, opts Options) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("engine: nil registry")
	}
	if user == nil {
		user = config.EmptyTree
	}
	effective := reg.Defaults().Merge(user)

	e := &Engine{config: effective, opts: opts}
	for _, r := range reg.All() {
		rc, err := config.Resolve(r.ID, effective.Rule(r.RuleSet, r.ID), r.Schema)
		if err != nil {
			return nil, err
		}
		act, err := effective.Activation(r.RuleSet, r.ID)
		if err != nil {
			return nil, err
		}
		if !act.Active {
			continue
		}
		if _, err := config.SimplePatterns(rc.IgnoreFunction()); err != nil {
			return nil, fmt.Errorf("%s>%s>%s: %w", r.RuleSet, r.ID, config.KeyIgnoreFunction, err)
		}
		probe, err := r.Factory(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Key(), err)
		}
		meta := probe.Meta()
		meta.ID = cmp.Or(meta.ID, r.ID)
		meta.RuleSet = cmp.Or(meta.RuleSet, r.RuleSet)
		meta.Aliases = slices.Concat(meta.Aliases, rc.Aliases())
		e.entries = append(e.entries, entry{
			reg:        r,
			cfg:        rc,
			meta:       meta,
			activation: act,
			ident: suppress.Rule{
				ID:               meta.ID,
				RuleSet:          meta.RuleSet,
				Aliases:          meta.Aliases,
				SelfSuppressible: meta.SelfSuppressible,
			},
			severity:  rc.Severity(),
			dropFixes: rc.Has(config.KeyAutoCorrect) && !rc.AutoCorrect(),
		})
	}
	// правила с автоисправлением идут первыми
	slices.SortStableFunc(e.entries, func(a, b entry) int {
		switch {
		case a.meta.Autocorrect == b.meta.Autocorrect:
			return 0
		case a.meta.Autocorrect:
			return -1
		default:
			return 1
		}
	})
	return e, nil
}

// Config returns the effective configuration: registry defaults with the
// user configuration merged on top.
func (e *Engine) Config() *config.Tree { return e.config }

// Rules returns the metadata of the active rules in dispatch order.
func (e *Engine) Rules() []rule.Meta {
	out := make([]rule.Meta, len(e.entries))
	for i := range e.entries {
		out[i] = e.entries[i].meta
	}
	return out
}

// Result is the outcome of analysing one file.
type Result struct {
	Path     string
	Findings []finding.Finding
	Errors   []*RuleExecutionError
	// Skipped lists rules that need type information the tree lacks.
	Skipped []string
	Elapsed time.Duration
}

// Diagnostics renders the execution errors as warnings.
func (r Result) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, err.Diagnostic())
	}
	return out
}

type instance struct {
	entry       *entry
	rule        rule.Rule
	ctx         *rule.Context
	suppressors []suppress.Suppressor
	run         *run
	elapsed     time.Duration
	findings    int
}

type run struct {
	file      *syntax.SourceFile
	tracker   *suppress.Tracker
	collector *finding.Collector
	errs      []*RuleExecutionError
	profile   bool
}

// Run analyses sf with every rule active for its path and returns the
// sorted, deduplicated findings. A panicking rule hook is recorded in
// Result.Errors and the traversal continues.
func (e *Engine) Run(ctx context.Context, sf *syntax.SourceFile) Result {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, sf.Path(), trace.CurrentSpan(ctx))
	res := Result{Path: sf.Path()}

	r := &run{
		file:      sf,
		tracker:   suppress.NewTracker(sf.Tree),
		collector: finding.NewCollector(e.opts.MaxFindings),
		profile:   e.opts.Profile != nil || tracer.Level().ShouldEmit(trace.ScopeRule),
	}
	instances := e.instantiate(r, &res)

	byKind := make([][]*instance, syntax.NumKinds)
	for _, in := range instances {
		for _, k := range in.entry.meta.Kinds {
			byKind[k] = append(byKind[k], in)
		}
	}

	for _, in := range instances {
		if fr, ok := in.rule.(rule.FileRule); ok {
			r.guard(in, PhaseBegin, sf.Tree.Root(), func() { fr.BeginFile(in.ctx) })
		}
	}
	for id := range sf.Tree.Walk(sf.Tree.Root()) {
		for _, in := range byKind[sf.Tree.Kind(id)] {
			if r.tracker.IsSuppressed(in.entry.ident, id) {
				continue
			}
			r.guard(in, PhaseVisit, id, func() { in.rule.Visit(in.ctx, id) })
		}
	}
	for _, in := range instances {
		if lr, ok := in.rule.(rule.LineRule); ok {
			r.guard(in, PhaseLines, sf.Tree.Root(), func() { lr.VisitLines(in.ctx) })
		}
	}
	for _, in := range instances {
		if fr, ok := in.rule.(rule.FileRule); ok {
			r.guard(in, PhaseEnd, sf.Tree.Root(), func() { fr.EndFile(in.ctx) })
		}
	}

	for _, in := range instances {
		e.opts.Profile.Add(in.entry.key(), in.elapsed, in.findings)
		if tracer.Level().ShouldEmit(trace.ScopeRule) {
			trace.Point(tracer, trace.ScopeRule, in.entry.key(),
				fmt.Sprintf("%d findings in %s", in.findings, in.elapsed), span.ID())
		}
	}

	r.collector.Sort()
	r.collector.Dedup()
	res.Findings = r.collector.Items()
	res.Errors = r.errs
	res.Elapsed = span.WithExtra("findings", fmt.Sprint(len(res.Findings))).End("")
	return res
}

// instantiate creates fresh rule instances for the rules active on sf.
func (e *Engine) instantiate(r *run, res *Result) []*instance {
	sf := r.file
	path := e.MatchPath(sf.Path())
	var out []*instance
	for i := range e.entries {
		en := &e.entries[i]
		if !en.activation.Allows(path) {
			continue
		}
		if en.meta.NeedsTypes && !sf.Tree.HasTypes() {
			res.Skipped = append(res.Skipped, en.key())
			continue
		}
		if r.tracker.FileSuppressed(en.ident) {
			continue
		}
		impl, err := en.reg.Factory(en.cfg)
		if err != nil {
			r.errs = append(r.errs, r.failure(en, PhaseBegin, sf.Tree.Root(), err))
			continue
		}
		suppressors, err := suppress.Build(sf.Tree, en.cfg)
		if err != nil {
			r.errs = append(r.errs, r.failure(en, PhaseBegin, sf.Tree.Root(), err))
			continue
		}
		in := &instance{entry: en, rule: impl, suppressors: suppressors, run: r}
		in.ctx = rule.NewContext(sf, en.cfg, en.meta, in.accept)
		out = append(out, in)
	}
	return out
}

// MatchPath returns the slash-separated path include/exclude globs are
// matched against: relative to Options.BasePath when one is set.
func (e *Engine) MatchPath(p string) string {
	if e.opts.BasePath == "" {
		return filepath.ToSlash(filepath.Clean(p))
	}
	rel, err := source.RelativePath(p, e.opts.BasePath)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p))
	}
	return rel
}

// accept is the sink behind rule.Context: it drops suppressed candidates
// and turns the rest into findings.
func (in *instance) accept(c rule.Candidate) {
	r := in.run
	if r.tracker.IsSuppressed(in.entry.ident, c.Node) || suppress.Any(in.suppressors, c.Node) {
		return
	}
	ent, err := finding.NewEntity(r.file, c.Node, c.Span)
	if err != nil {
		r.errs = append(r.errs, r.failure(in.entry, PhaseSink, c.Node, errors.WithStack(err)))
		return
	}
	fixes := c.Corrections
	if in.entry.dropFixes {
		fixes = nil
	}
	if r.collector.Add(finding.Finding{
		RuleID:      in.entry.meta.ID,
		RuleSet:     in.entry.meta.RuleSet,
		Message:     c.Message,
		Severity:    in.entry.severity,
		Entity:      ent,
		Corrections: fixes,
	}) {
		in.findings++
	}
}

// guard runs one rule hook, recovering a panic into a RuleExecutionError.
func (r *run) guard(in *instance, phase Phase, id syntax.NodeID, hook func()) {
	var start time.Time
	if r.profile {
		start = time.Now()
	}
	defer func() {
		if r.profile {
			in.elapsed += time.Since(start)
		}
		if p := recover(); p != nil {
			r.errs = append(r.errs, r.failure(in.entry, phase, id, recovered(p)))
		}
	}()
	hook()
}

func (r *run) failure(en *entry, phase Phase, id syntax.NodeID, cause error) *RuleExecutionError {
	loc := finding.Location{Path: r.file.Path()}
	if n := r.file.Tree.Node(id); n != nil {
		if l, err := finding.NewLocation(r.file.File, n.Span); err == nil {
			loc = l
		}
	}
	return &RuleExecutionError{Rule: en.key(), Phase: phase, Node: id, Location: loc, Cause: cause}
}
