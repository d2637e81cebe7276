package syntax

import (
	"errors"
	"fmt"

	"spotter/internal/source"
)

// Builder assembles a Tree. The first node added must be the root; every
// later node is attached to an existing parent, in source order.
type Builder struct {
	file     source.FileID
	nodes    *Arena[Node]
	root     NodeID
	hasTypes bool
	err      error
}

// NewBuilder returns a Builder for nodes of file.
func NewBuilder(file source.FileID, capHint uint) *Builder {
	return &Builder{
		file:  file,
		nodes: NewArena[Node](capHint),
	}
}

// SetHasTypes marks the tree as carrying resolved type information.
func (b *Builder) SetHasTypes(v bool) *Builder {
	b.hasTypes = v
	return b
}

// Root creates the file node spanning [start, end).
func (b *Builder) Root(start, end uint32) NodeID {
	if b.root.IsValid() {
		b.fail(errors.New("root already set"))
		return b.root
	}
	b.root = NodeID(b.nodes.Allocate(Node{
		Kind: KindFile,
		Span: source.Span{File: b.file, Start: start, End: end},
	}))
	return b.root
}

// Add appends a child under parent. Span.File is filled in by the builder.
func (b *Builder) Add(parent NodeID, n Node) NodeID {
	p := b.nodes.Get(uint32(parent))
	if p == nil {
		b.fail(fmt.Errorf("unknown parent %d for %s node", parent, n.Kind))
		return NoNodeID
	}
	n.Span.File = b.file
	n.Parent = parent
	n.Children = nil
	id := NodeID(b.nodes.Allocate(n))
	// Allocate может переаллоцировать срез, поэтому берём родителя заново
	p = b.nodes.Get(uint32(parent))
	p.Children = append(p.Children, id)
	return id
}

// Child is a shorthand for Add with kind and span only.
func (b *Builder) Child(parent NodeID, kind Kind, start, end uint32) NodeID {
	return b.Add(parent, Node{Kind: kind, Span: source.Span{Start: start, End: end}})
}

// Annotate attaches an annotation to an existing node.
func (b *Builder) Annotate(id NodeID, a Annotation) {
	n := b.nodes.Get(uint32(id))
	if n == nil {
		b.fail(fmt.Errorf("annotate: unknown node %d", id))
		return
	}
	a.Span.File = b.file
	n.Annotations = append(n.Annotations, a)
}

// Node gives mutable access to a node while building.
func (b *Builder) Node(id NodeID) *Node {
	return b.nodes.Get(uint32(id))
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Finish validates the structure and returns the immutable Tree.
func (b *Builder) Finish() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.root.IsValid() {
		return nil, errors.New("tree has no root")
	}
	t := &Tree{nodes: b.nodes, root: b.root, hasTypes: b.hasTypes}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
