package syntax

import (
	"errors"
	"fmt"
)

// ErrMalformedTree is wrapped by every structural violation reported by Validate.
var ErrMalformedTree = errors.New("malformed syntax tree")

// Validate checks the structural invariants of the tree: exactly one root of
// kind file, consistent parent links, no cycles, every node reachable from the
// root, child spans nested in the parent span, and siblings ordered without
// overlap.
func (t *Tree) Validate() error {
	root := t.Node(t.root)
	if root == nil {
		return fmt.Errorf("%w: missing root", ErrMalformedTree)
	}
	if root.Kind != KindFile {
		return fmt.Errorf("%w: root is %s, want file", ErrMalformedTree, root.Kind)
	}
	if root.Parent.IsValid() {
		return fmt.Errorf("%w: root has parent %d", ErrMalformedTree, root.Parent)
	}
	if root.Span.End < root.Span.Start {
		return fmt.Errorf("%w: root span %s is inverted", ErrMalformedTree, root.Span)
	}

	seen := make([]bool, t.Len()+1)
	stack := []NodeID{t.root}
	seen[t.root] = true
	visited := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		n := t.Node(id)
		var prevEnd uint32
		for i, c := range n.Children {
			child := t.Node(c)
			if child == nil {
				return fmt.Errorf("%w: node %d references unknown child %d", ErrMalformedTree, id, c)
			}
			if seen[c] {
				return fmt.Errorf("%w: node %d reached twice (cycle or shared child)", ErrMalformedTree, c)
			}
			seen[c] = true
			if child.Parent != id {
				return fmt.Errorf("%w: node %d lists child %d whose parent is %d", ErrMalformedTree, id, c, child.Parent)
			}
			if child.Span.End < child.Span.Start {
				return fmt.Errorf("%w: %s node %d has inverted span %s", ErrMalformedTree, child.Kind, c, child.Span)
			}
			if child.Span.Start < n.Span.Start || child.Span.End > n.Span.End {
				return fmt.Errorf("%w: %s node %d span %s escapes parent span %s",
					ErrMalformedTree, child.Kind, c, child.Span, n.Span)
			}
			if i > 0 && child.Span.Start < prevEnd {
				return fmt.Errorf("%w: %s node %d overlaps or precedes its previous sibling",
					ErrMalformedTree, child.Kind, c)
			}
			prevEnd = child.Span.End
			stack = append(stack, c)
		}
	}
	if visited != t.Len() {
		return fmt.Errorf("%w: %d of %d nodes unreachable from root", ErrMalformedTree, t.Len()-visited, t.Len())
	}
	return nil
}
