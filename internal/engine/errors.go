package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/syntax"
)

// ErrRuleExecution is matched by every *RuleExecutionError.
var ErrRuleExecution = errors.New("rule execution failed")

// Phase names the rule hook that failed.
type Phase string

const (
	PhaseBegin Phase = "begin-file"
	PhaseVisit Phase = "visit"
	PhaseLines Phase = "lines"
	PhaseEnd   Phase = "end-file"
	PhaseSink  Phase = "report"
)

// RuleExecutionError records a rule hook that panicked (or reported a finding
// that could not be located) on one node. The run goes on without it.
type RuleExecutionError struct {
	Rule     string // ruleSet/id
	Phase    Phase
	Node     syntax.NodeID
	Location finding.Location
	Cause    error
}

func (e *RuleExecutionError) Error() string {
	return fmt.Sprintf("rule %s failed during %s at %s: %v", e.Rule, e.Phase, e.Location, e.Cause)
}

func (e *RuleExecutionError) Unwrap() error { return e.Cause }

func (e *RuleExecutionError) Is(target error) bool { return target == ErrRuleExecution }

// Diagnostic renders the error as a warning next to the findings. The note
// carries the frame where the panic originated, when known.
func (e *RuleExecutionError) Diagnostic() diag.Diagnostic {
	d := diag.New(diag.SevWarning, diag.RuleExecutionFailed, e.Location.Span, e.Error())
	d.Path = e.Location.Path
	if origin := panicOrigin(e.Cause); origin != "" {
		d = d.WithNote(e.Location.Span, "Location: "+origin)
	}
	return d
}

// recovered turns a recovered panic value into an error carrying the stack
// of the panicking goroutine.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return errors.WithStack(err)
	}
	return errors.Newf("panic: %v", r)
}

// panicOrigin finds the first non-runtime frame below runtime.gopanic.
func panicOrigin(err error) string {
	st := errors.GetReportableStackTrace(err)
	if st == nil {
		return ""
	}
	// кадры идут от внешнего к внутреннему
	for i := len(st.Frames) - 1; i >= 0; i-- {
		if st.Frames[i].Function != "gopanic" {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			f := st.Frames[j]
			if f.Module == "runtime" {
				continue
			}
			return fmt.Sprintf("%s.%s (%s:%d)", f.Module, f.Function, f.Filename, f.Lineno)
		}
	}
	return ""
}
