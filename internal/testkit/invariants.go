package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"spotter/internal/syntax"
)

// CheckTreeInvariants runs the span invariants a front end must uphold on top
// of syntax.Tree.Validate:
// 1) the root span lies within the file content
// 2) every node and annotation span points at the file and lies inside the content
// 3) annotation spans lie inside the span of the node that carries them
func CheckTreeInvariants(sf *syntax.SourceFile) error {
	if sf == nil || sf.File == nil || sf.Tree == nil {
		return fmt.Errorf("nil source file")
	}
	if err := sf.Tree.Validate(); err != nil {
		return err
	}
	lenContent, err := safecast.Conv[uint32](len(sf.File.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	for id := range sf.Tree.Walk(sf.Tree.Root()) {
		n := sf.Tree.Node(id)
		if n.Span.File != sf.File.ID {
			return fmt.Errorf("%s node %d span file mismatch: got=%d want=%d", n.Kind, id, n.Span.File, sf.File.ID)
		}
		if n.Span.End > lenContent {
			return fmt.Errorf("%s node %d span end beyond content: %d > %d", n.Kind, id, n.Span.End, lenContent)
		}
		for _, a := range n.Annotations {
			if a.Span.File != sf.File.ID {
				return fmt.Errorf("annotation %s on node %d: span file mismatch", a.Name, id)
			}
			if !n.Span.Contains(a.Span) {
				return fmt.Errorf("annotation %s span %v is outside node span %v", a.Name, a.Span, n.Span)
			}
		}
	}
	return nil
}
