package testkit

import (
	"strings"
	"testing"

	"fortio.org/safecast"

	"spotter/internal/source"
	"spotter/internal/syntax"
)

// Fixture builds a syntax tree over Kotlin-like text by locating node text
// in the source, so tests read like the code they describe.
type Fixture struct {
	t    testing.TB
	fs   *source.FileSet
	file source.FileID
	text string
	b    *syntax.Builder
	root syntax.NodeID
}

// NodeOpt customises a node created by Fixture.Node.
type NodeOpt func(*syntax.Node)

func Name(name string) NodeOpt          { return func(n *syntax.Node) { n.Name = name } }
func Text(text string) NodeOpt          { return func(n *syntax.Node) { n.Text = text } }
func WithRole(role syntax.Role) NodeOpt { return func(n *syntax.Node) { n.Role = role } }

// Typed attaches resolved type information.
func Typed(name string, nullable bool) NodeOpt {
	return func(n *syntax.Node) { n.Type = &syntax.TypeInfo{Name: name, Nullable: nullable} }
}

// NewFixture registers text under path in a fresh FileSet and creates the
// root node spanning the whole text.
func NewFixture(t testing.TB, path, text string) *Fixture {
	t.Helper()
	fs := source.NewFileSet()
	fs.SetBaseDir("/")
	id := fs.AddVirtual(path, []byte(text))
	f := &Fixture{t: t, fs: fs, file: id, text: text, b: syntax.NewBuilder(id, 32)}
	f.root = f.b.Root(0, f.u32(len(text)))
	return f
}

func (f *Fixture) u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		f.t.Fatalf("offset overflow: %v", err)
	}
	return v
}

// FileSet returns the set holding the fixture file.
func (f *Fixture) FileSet() *source.FileSet { return f.fs }

// Root returns the file node.
func (f *Fixture) Root() syntax.NodeID { return f.root }

// Builder exposes the underlying builder for unusual shapes.
func (f *Fixture) Builder() *syntax.Builder { return f.b }

// SetHasTypes marks the tree as carrying semantic information.
func (f *Fixture) SetHasTypes() *Fixture {
	f.b.SetHasTypes(true)
	return f
}

// Span returns the span of the first occurrence of substr at or after from.
func (f *Fixture) Span(substr string, from uint32) source.Span {
	f.t.Helper()
	i := strings.Index(f.text[from:], substr)
	if i < 0 {
		f.t.Fatalf("fixture: %q not found after offset %d", substr, from)
	}
	start := from + f.u32(i)
	return source.Span{File: f.file, Start: start, End: start + f.u32(len(substr))}
}

// Node adds a child of parent covering the first occurrence of substr inside
// the parent that follows the parent's last child.
func (f *Fixture) Node(parent syntax.NodeID, kind syntax.Kind, substr string, opts ...NodeOpt) syntax.NodeID {
	f.t.Helper()
	p := f.b.Node(parent)
	if p == nil {
		f.t.Fatalf("fixture: unknown parent %d", parent)
	}
	from := p.Span.Start
	if len(p.Children) > 0 {
		from = f.b.Node(p.Children[len(p.Children)-1]).Span.End
	}
	sp := f.Span(substr, from)
	if sp.End > p.Span.End {
		f.t.Fatalf("fixture: %q escapes its %s parent", substr, p.Kind)
	}
	n := syntax.Node{Kind: kind, Span: sp}
	for _, opt := range opts {
		opt(&n)
	}
	return f.b.Add(parent, n)
}

// Annotate attaches an annotation to id. Its span is the first occurrence of
// "@" + the annotation text inside the node; args are the string-literal
// arguments.
func (f *Fixture) Annotate(id syntax.NodeID, name string, args ...string) {
	f.t.Helper()
	n := f.b.Node(id)
	short := name[strings.LastIndexByte(name, '.')+1:]
	marker := "@" + short
	if id == f.root {
		marker = "@file:" + short
	}
	sp := f.Span(marker, n.Span.Start)
	// аннотация тянется до закрывающей скобки аргументов, если они есть
	if rest := f.text[sp.End:]; strings.HasPrefix(rest, "(") {
		if j := strings.IndexByte(rest, ')'); j >= 0 {
			sp.End += f.u32(j + 1)
		}
	}
	a := syntax.Annotation{Name: name, Args: args, Span: sp}
	if id == f.root {
		a.UseSite = "file"
	}
	f.b.Annotate(id, a)
}

// Suppress is a shortcut for Annotate(id, "Suppress", rules...).
func (f *Fixture) Suppress(id syntax.NodeID, rules ...string) {
	f.t.Helper()
	f.Annotate(id, "Suppress", rules...)
}

// Finish validates the tree and returns the source file.
func (f *Fixture) Finish() *syntax.SourceFile {
	f.t.Helper()
	tree, err := f.b.Finish()
	if err != nil {
		f.t.Fatalf("fixture: %v", err)
	}
	sf := &syntax.SourceFile{File: f.fs.Get(f.file), Tree: tree}
	if err := CheckTreeInvariants(sf); err != nil {
		f.t.Fatalf("fixture invariants: %v", err)
	}
	return sf
}
