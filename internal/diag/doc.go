// Package diag defines the diagnostics a lint run reports about itself.
//
// Style violations found by rules are finding.Finding values. Everything else
// the user must hear about goes through this package: a rule that panicked
// (RuleExecutionFailed), configuration notifications produced by
// config.Validate, tree dumps that failed to load, cache and IO failures.
//
// Diagnostic carries a Severity, a stable Code (see codes.go), a message and
// either a primary source.Span or a bare Path when no span exists (for
// example a configuration file). Producers emit through the Reporter
// interface; Bag is the usual sink and is safe for concurrent use so per-file
// workers can share it.
//
// TextEdit and Fix describe corrections. Rules attach them to findings and
// internal/fix applies them.
package diag
