package syntax

import (
	"strings"

	"spotter/internal/source"
)

// SourceFile pairs the text of a file with its syntax tree.
type SourceFile struct {
	File *source.File
	Tree *Tree
}

// Path returns the path the file was loaded from.
func (sf *SourceFile) Path() string { return sf.File.Path }

// Text returns the source text covered by node id, or "" for unknown nodes.
func (sf *SourceFile) Text(id NodeID) string {
	n := sf.Tree.Node(id)
	if n == nil {
		return ""
	}
	text, err := sf.File.TextInRange(n.Span)
	if err != nil {
		return ""
	}
	return text
}

// DeclarationPath returns the dotted names of the named declarations enclosing
// id, outermost first. id itself is included when it is a named declaration.
func (sf *SourceFile) DeclarationPath(id NodeID) string {
	var names []string
	if n := sf.Tree.Node(id); n != nil && n.Kind.IsDeclaration() && n.Name != "" {
		names = append(names, n.Name)
	}
	for p := range sf.Tree.Ancestors(id) {
		n := sf.Tree.Node(p)
		if n.Kind.IsDeclaration() && n.Name != "" {
			names = append(names, n.Name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}
