package syntax

import (
	"spotter/internal/source"
)

type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// NumKinds is the size of a table indexed by Kind.
const NumKinds = int(kindCount)

// Annotation is an annotation entry attached to a node. Name is the canonical
// identifier produced by the front end (aliases and imports already resolved).
type Annotation struct {
	Name    string
	Args    []string // string-literal arguments, in declaration order
	Span    source.Span
	UseSite string // "file" for @file: annotations
}

// ShortName returns the last segment of a qualified annotation name.
func (a Annotation) ShortName() string {
	for i := len(a.Name) - 1; i >= 0; i-- {
		if a.Name[i] == '.' {
			return a.Name[i+1:]
		}
	}
	return a.Name
}

// TypeInfo is resolved type information supplied by a semantic front end.
type TypeInfo struct {
	Name     string // fully-qualified
	Nullable bool
}

// Node is one element of a parsed file.
type Node struct {
	Kind        Kind
	Role        Role
	Span        source.Span
	Name        string // declared or referenced name, if any
	Text        string // keyword, operator or literal text, if any
	Parent      NodeID
	Children    []NodeID
	Annotations []Annotation
	Type        *TypeInfo
}
