package syntax

import (
	"errors"
	"slices"
	"testing"

	"spotter/internal/source"
)

// "fun f() {\n    if (x) y()\n}\n"
func buildSample(t *testing.T) (*Tree, map[string]NodeID) {
	t.Helper()
	b := NewBuilder(1, 8)
	ids := map[string]NodeID{}
	ids["file"] = b.Root(0, 27)
	ids["fun"] = b.Add(ids["file"], Node{Kind: KindFunction, Name: "f", Span: source.Span{Start: 0, End: 26}})
	ids["block"] = b.Add(ids["fun"], Node{Kind: KindBlock, Role: RoleBody, Span: source.Span{Start: 8, End: 26}})
	ids["if"] = b.Add(ids["block"], Node{Kind: KindIf, Text: "if", Span: source.Span{Start: 14, End: 24}})
	ids["cond"] = b.Add(ids["if"], Node{Kind: KindIdentifier, Role: RoleCondition, Name: "x", Span: source.Span{Start: 18, End: 19}})
	ids["then"] = b.Add(ids["if"], Node{Kind: KindCall, Role: RoleThen, Name: "y", Span: source.Span{Start: 21, End: 24}})
	tree, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return tree, ids
}

func TestTreeQueries(t *testing.T) {
	tree, ids := buildSample(t)

	if tree.Root() != ids["file"] {
		t.Fatalf("root = %d, want %d", tree.Root(), ids["file"])
	}
	if tree.Len() != 6 {
		t.Fatalf("Len = %d, want 6", tree.Len())
	}
	if got := tree.Parent(ids["cond"]); got != ids["if"] {
		t.Errorf("Parent(cond) = %d, want %d", got, ids["if"])
	}
	if got := tree.Parent(ids["file"]); got.IsValid() {
		t.Errorf("root parent = %d, want none", got)
	}
	if got := tree.ChildByRole(ids["if"], RoleThen); got != ids["then"] {
		t.Errorf("ChildByRole(then) = %d, want %d", got, ids["then"])
	}
	if got := tree.ChildByRole(ids["if"], RoleElse); got.IsValid() {
		t.Errorf("ChildByRole(else) = %d, want none", got)
	}

	anc := slices.Collect(tree.Ancestors(ids["cond"]))
	want := []NodeID{ids["if"], ids["block"], ids["fun"], ids["file"]}
	if !slices.Equal(anc, want) {
		t.Errorf("Ancestors = %v, want %v", anc, want)
	}
	if got := tree.EnclosingOfKind(ids["then"], KindFunction); got != ids["fun"] {
		t.Errorf("EnclosingOfKind = %d, want %d", got, ids["fun"])
	}
}

func TestDescendantsPreOrderAndRestartable(t *testing.T) {
	tree, ids := buildSample(t)

	all := tree.Descendants(tree.Root())
	first := slices.Collect(all)
	second := slices.Collect(all)
	want := []NodeID{ids["fun"], ids["block"], ids["if"], ids["cond"], ids["then"]}
	if !slices.Equal(first, want) {
		t.Fatalf("Descendants = %v, want %v", first, want)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("second iteration differs: %v vs %v", second, first)
	}

	calls := slices.Collect(tree.Descendants(tree.Root(), KindCall, KindIdentifier))
	if !slices.Equal(calls, []NodeID{ids["cond"], ids["then"]}) {
		t.Errorf("filtered Descendants = %v", calls)
	}

	// ранний выход не должен ломать последующие обходы
	for range tree.Descendants(tree.Root()) {
		break
	}
	if n := len(slices.Collect(tree.Descendants(ids["if"]))); n != 2 {
		t.Errorf("Descendants(if) len = %d, want 2", n)
	}
}

func TestBuilderRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{
			name: "child escapes parent",
			build: func(b *Builder) {
				r := b.Root(0, 10)
				fn := b.Child(r, KindFunction, 0, 5)
				b.Child(fn, KindBlock, 3, 7)
			},
		},
		{
			name: "overlapping siblings",
			build: func(b *Builder) {
				r := b.Root(0, 10)
				b.Child(r, KindFunction, 0, 5)
				b.Child(r, KindFunction, 4, 8)
			},
		},
		{
			name: "unordered siblings",
			build: func(b *Builder) {
				r := b.Root(0, 10)
				b.Child(r, KindFunction, 6, 8)
				b.Child(r, KindFunction, 0, 5)
			},
		},
		{
			name: "inverted span",
			build: func(b *Builder) {
				r := b.Root(0, 10)
				b.Child(r, KindFunction, 5, 4)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(1, 4)
			tt.build(b)
			_, err := b.Finish()
			if !errors.Is(err, ErrMalformedTree) {
				t.Fatalf("Finish error = %v, want ErrMalformedTree", err)
			}
		})
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder(1, 2)
	if _, err := b.Finish(); err == nil {
		t.Fatal("expected error for tree without root")
	}

	b = NewBuilder(1, 2)
	b.Root(0, 1)
	if id := b.Child(42, KindBlock, 0, 1); id.IsValid() {
		t.Fatalf("Child with unknown parent returned %d", id)
	}
	if _, err := b.Finish(); err == nil {
		t.Fatal("expected error for unknown parent")
	}
}

func TestEmptySpansAllowed(t *testing.T) {
	b := NewBuilder(1, 4)
	r := b.Root(0, 0)
	b.Child(r, KindPackageDirective, 0, 0)
	b.Child(r, KindImportList, 0, 0)
	if _, err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestSourceFileHelpers(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("fun f() {\n    if (x) y()\n}\n"))
	tree, ids := buildSample(t)
	sf := &SourceFile{File: fs.Get(id), Tree: tree}

	if got := sf.Text(ids["if"]); got != "if (x) y()" {
		t.Errorf("Text(if) = %q", got)
	}
	if got := sf.Text(NoNodeID); got != "" {
		t.Errorf("Text(none) = %q", got)
	}
	if got := sf.DeclarationPath(ids["then"]); got != "f" {
		t.Errorf("DeclarationPath = %q, want f", got)
	}
}

func TestKindRoundTrip(t *testing.T) {
	for k := KindFile; k < kindCount; k++ {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Error("ParseKind accepted unknown kind")
	}
	for r := RoleNone; r < roleCount; r++ {
		got, err := ParseRole(r.String())
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %v, %v", r.String(), got, err)
		}
	}
}

func TestInnermostAt(t *testing.T) {
	tree, ids := buildSample(t)
	tests := []struct {
		start, end uint32
		want       string
	}{
		{18, 19, "cond"},
		{21, 22, "then"},
		{14, 16, "if"},
		{0, 3, "fun"},
		{26, 27, "file"},
	}
	for _, tt := range tests {
		if got := tree.InnermostAt(tt.start, tt.end); got != ids[tt.want] {
			t.Errorf("InnermostAt(%d,%d) = %d, want %s (%d)", tt.start, tt.end, got, tt.want, ids[tt.want])
		}
	}
}

func TestDigestTracksTreeContent(t *testing.T) {
	a, _ := buildSample(t)
	b, ids := buildSample(t)
	if a.Digest() != b.Digest() {
		t.Fatal("equal trees must have equal digests")
	}

	c, _ := buildSample(t)
	c.Node(ids["fun"]).Annotations = append(c.Node(ids["fun"]).Annotations,
		Annotation{Name: "Suppress", Args: []string{"X"}})
	if c.Digest() == a.Digest() {
		t.Error("annotation change not reflected in digest")
	}

	d, _ := buildSample(t)
	d.hasTypes = true
	if d.Digest() == a.Digest() {
		t.Error("type availability not reflected in digest")
	}
}
