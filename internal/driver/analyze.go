package driver

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"spotter/internal/diag"
	"spotter/internal/engine"
	"spotter/internal/syntax"
	"spotter/internal/trace"
)

// FileState is the progress of one input.
type FileState uint8

const (
	FileQueued FileState = iota
	FileRunning
	FileDone
	FileCached
	FileFailed
)

func (s FileState) String() string {
	switch s {
	case FileQueued:
		return "queued"
	case FileRunning:
		return "running"
	case FileDone:
		return "done"
	case FileCached:
		return "cached"
	case FileFailed:
		return "failed"
	}
	return "unknown"
}

// FileEvent reports a state change of the input at Index.
type FileEvent struct {
	Index    int
	Path     string
	State    FileState
	Findings int
	Elapsed  time.Duration
}

// AnalyzeOptions tune AnalyzeFiles.
type AnalyzeOptions struct {
	// Jobs bounds the number of files analysed at once; <= 0 means GOMAXPROCS.
	Jobs int
	// Cache, when set, is consulted before and filled after each file.
	Cache *Cache
	// Version is mixed into cache keys.
	Version string
	// OnEvent is called from worker goroutines; it must be safe for
	// concurrent use and return quickly.
	OnEvent func(FileEvent)
}

// FileResult is the outcome for one input.
type FileResult struct {
	engine.Result
	Cached bool
	// Diagnostics are tool diagnostics: rule execution failures and cache
	// problems.
	Diagnostics []diag.Diagnostic
}

// AnalyzeFiles runs eng over files in parallel. Results are returned in
// input order regardless of scheduling. Cancellation is checked between
// files; a file whose analysis has started runs to completion.
func AnalyzeFiles(ctx context.Context, files []*syntax.SourceFile, eng *engine.Engine, opts AnalyzeOptions) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	emit := func(ev FileEvent) {
		if opts.OnEvent != nil {
			opts.OnEvent(ev)
		}
	}
	for i, sf := range files {
		emit(FileEvent{Index: i, Path: sf.Path(), State: FileQueued})
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRun, "analyze", trace.CurrentSpan(ctx)).
		WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	configHash := eng.Config().Hash()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, sf := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(FileEvent{Index: i, Path: sf.Path(), State: FileRunning})
			// индекс i уникален для горутины, мьютекс не нужен
			key := CacheKey(KeyInput{
				FileHash:   sf.File.Hash,
				TreeDigest: sf.Tree.Digest(),
				Path:       sf.Path(),
				MatchPath:  eng.MatchPath(sf.Path()),
				ConfigHash: configHash,
				Version:    opts.Version,
			})
			results[i] = analyzeOne(gctx, sf, eng, opts.Cache, key)
			state := FileDone
			switch {
			case len(results[i].Errors) > 0:
				state = FileFailed
			case results[i].Cached:
				state = FileCached
			}
			emit(FileEvent{
				Index:    i,
				Path:     sf.Path(),
				State:    state,
				Findings: len(results[i].Findings),
				Elapsed:  results[i].Elapsed,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func analyzeOne(ctx context.Context, sf *syntax.SourceFile, eng *engine.Engine, cache *Cache, key Digest) FileResult {
	var res FileResult
	if cache != nil {
		var cached CachedResult
		start := time.Now()
		ok, err := cache.Get(key, &cached)
		switch {
		case err != nil:
			res.Diagnostics = append(res.Diagnostics, diag.NewPathDiagnostic(diag.SevInfo, diag.CacheFailure, sf.Path(),
				"ignoring unreadable cache entry: "+err.Error()))
		case ok:
			res.Result = engine.Result{
				Path:     sf.Path(),
				Findings: rebind(cached.Findings, sf),
				Skipped:  cached.Skipped,
				Elapsed:  time.Since(start),
			}
			res.Cached = true
			return res
		}
	}

	res.Result = eng.Run(ctx, sf)
	res.Diagnostics = append(res.Diagnostics, res.Result.Diagnostics()...)
	if cache != nil && len(res.Errors) == 0 {
		if err := cache.Put(key, &CachedResult{Findings: res.Findings, Skipped: res.Skipped}); err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.NewPathDiagnostic(diag.SevInfo, diag.CacheFailure, sf.Path(),
				"could not store findings: "+err.Error()))
		}
	}
	return res
}
