// Package trace records span events for a lint run: the whole run, each
// analyzed file and each rule hook executed on a file.
//
// Tracing is off by default and costs a context lookup and a level check.
// Enable it from the command line:
//
//	spotter check --trace=- --trace-level=detail ./src
//
// Levels map onto scopes:
//
//   - LevelOff: nothing
//   - LevelPhase: run boundaries (config resolution, analysis, reporting)
//   - LevelDetail: one span per file
//   - LevelDebug: one span per rule per file
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, path, 0)
//	defer span.End("")
package trace
