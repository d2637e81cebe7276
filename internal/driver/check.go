package driver

import (
	"context"
	"errors"
	"fmt"

	"spotter/internal/diag"
	"spotter/internal/engine"
	"spotter/internal/finding"
	"spotter/internal/frontend"
	"spotter/internal/observ"
	"spotter/internal/source"
	"spotter/internal/syntax"
	"spotter/internal/trace"
)

// CheckRequest describes one lint run over tree dumps.
type CheckRequest struct {
	Paths  []string
	Filter InputFilter
	// BaseDir is used for relative paths in reports.
	BaseDir string
	Engine  *engine.Engine
	Analyze AnalyzeOptions
	// Timer, when set, records the discover, load and analyze phases.
	Timer *observ.Timer
	// Inputs, when set, is called with the discovered dump paths before
	// loading starts.
	Inputs func(paths []string)
}

// CheckResult holds everything a report needs.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Diagnostics are tool diagnostics in input order: load failures first,
	// then per-file diagnostics. Exact duplicates are reported once.
	Diagnostics []diag.Diagnostic
}

// Findings returns the findings of all files, sorted.
func (r *CheckResult) Findings() []finding.Finding {
	lists := make([][]finding.Finding, len(r.Files))
	for i := range r.Files {
		lists[i] = r.Files[i].Findings
	}
	return finding.Merge(lists...)
}

// Check discovers dumps, loads them and analyses the loaded files. A dump
// that cannot be loaded becomes a diagnostic; the run continues with the
// others.
func Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	if req.Engine == nil {
		return nil, errors.New("check: nil engine")
	}
	timer := req.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRun, "check", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	idx := timer.Begin("discover")
	paths, err := CollectInputs(req.Paths, req.Filter)
	timer.End(idx, fmt.Sprintf("%d dumps", len(paths)))
	if err != nil {
		return nil, err
	}
	if req.Inputs != nil {
		req.Inputs(paths)
	}

	res := &CheckResult{FileSet: source.NewFileSetWithBase(req.BaseDir)}
	bag := diag.NewBag(0)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	defer func() { res.Diagnostics = bag.Items() }()

	idx = timer.Begin("load")
	loader := frontend.NewDumpLoader(res.FileSet)
	files := make([]*syntax.SourceFile, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			timer.End(idx, "cancelled")
			return res, err
		}
		sf, err := loader.Parse(ctx, p)
		if err != nil {
			code := diag.FrontendLoadFailed
			if errors.Is(err, frontend.ErrMalformedDump) || errors.Is(err, syntax.ErrMalformedTree) {
				code = diag.FrontendTreeInvalid
			}
			reporter.Report(diag.NewPathDiagnostic(diag.SevError, code, p, err.Error()))
			continue
		}
		files = append(files, sf)
	}
	timer.End(idx, fmt.Sprintf("%d files", len(files)))

	idx = timer.Begin("analyze")
	res.Files, err = AnalyzeFiles(ctx, files, req.Engine, req.Analyze)
	timer.End(idx, "")
	for _, f := range res.Files {
		for _, d := range f.Diagnostics {
			reporter.Report(d)
		}
	}
	return res, err
}
