package syntax

import (
	"iter"
	"slices"
)

// Tree is an immutable, single-rooted syntax tree. Nodes are stored in an
// arena and addressed by NodeID.
type Tree struct {
	nodes    *Arena[Node]
	root     NodeID
	hasTypes bool
}

// Root returns the file node.
func (t *Tree) Root() NodeID { return t.root }

// HasTypes reports whether the front end attached resolved type information.
func (t *Tree) HasTypes() bool { return t != nil && t.hasTypes }

// Len returns the number of nodes.
func (t *Tree) Len() int { return int(t.nodes.Len()) }

// Node returns the node for id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

// Parent returns the parent of id, NoNodeID for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// Children returns the ordered children of id. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// ChildByRole returns the first child of id occupying role.
func (t *Tree) ChildByRole(id NodeID, role Role) NodeID {
	for _, c := range t.Children(id) {
		if t.Node(c).Role == role {
			return c
		}
	}
	return NoNodeID
}

// ChildrenOfKind returns the direct children of id with the given kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Node(c).Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Ancestors yields the parents of id, innermost first, ending with the root.
func (t *Tree) Ancestors(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for p := t.Parent(id); p.IsValid(); p = t.Parent(p) {
			if !yield(p) {
				return
			}
		}
	}
}

// Walk yields id and all its descendants in pre-order (parent before children,
// children in source order). Every call starts a fresh walk.
func (t *Tree) Walk(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if t.Node(id) == nil {
			return
		}
		stack := []NodeID{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			children := t.Children(cur)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// Descendants yields the strict descendants of id in pre-order, filtered to
// kinds when any are given. The sequence is lazy and restartable.
func (t *Tree) Descendants(id NodeID, kinds ...Kind) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for n := range t.Walk(id) {
			if n == id {
				continue
			}
			if len(kinds) > 0 && !slices.Contains(kinds, t.Kind(n)) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// EnclosingOfKind returns the innermost ancestor of id (id itself included)
// whose kind is one of kinds.
func (t *Tree) EnclosingOfKind(id NodeID, kinds ...Kind) NodeID {
	if slices.Contains(kinds, t.Kind(id)) {
		return id
	}
	for p := range t.Ancestors(id) {
		if slices.Contains(kinds, t.Kind(p)) {
			return p
		}
	}
	return NoNodeID
}

// InnermostAt returns the deepest node whose span contains [start, end).
// The root is returned when no child does.
func (t *Tree) InnermostAt(start, end uint32) NodeID {
	cur := t.root
	for {
		next := NoNodeID
		for _, c := range t.Children(cur) {
			sp := t.Node(c).Span
			if sp.Start <= start && end <= sp.End && !(sp.Start == sp.End && start != end) {
				next = c
				break
			}
		}
		if !next.IsValid() {
			return cur
		}
		cur = next
	}
}
