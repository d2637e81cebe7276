package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/source"
	"spotter/internal/syntax"
)

const sample = "class A {\n    fun foo() {\n        bar()\n    }\n}\n"

func sampleFile(t *testing.T) (*syntax.SourceFile, syntax.NodeID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("src/A.kt", []byte(sample))
	b := syntax.NewBuilder(id, 4)
	root := b.Root(0, uint32(len(sample)))
	class := b.Add(root, syntax.Node{Kind: syntax.KindClass, Name: "A", Span: source.Span{Start: 0, End: 47}})
	fn := b.Add(class, syntax.Node{Kind: syntax.KindFunction, Name: "foo", Span: source.Span{Start: 14, End: 45}})
	call := b.Add(fn, syntax.Node{Kind: syntax.KindCall, Name: "bar", Span: source.Span{Start: 34, End: 39}})
	tree, err := b.Finish()
	require.NoError(t, err)
	return &syntax.SourceFile{File: fs.Get(id), Tree: tree}, call
}

func TestNewEntity(t *testing.T) {
	sf, call := sampleFile(t)
	span := sf.Tree.Node(call).Span

	ent, err := NewEntity(sf, call, span)
	require.NoError(t, err)
	assert.Equal(t, "bar", ent.Name)
	assert.Equal(t, "A.kt:A.foo:bar()", ent.Signature)
	assert.Equal(t, source.LineCol{Line: 3, Col: 9}, ent.Location.Start)
	assert.Equal(t, source.LineCol{Line: 3, Col: 14}, ent.Location.End)
	assert.Equal(t, "src/A.kt:3:9", ent.Location.String())
}

func TestNewEntityOutOfRange(t *testing.T) {
	sf, call := sampleFile(t)
	_, err := NewEntity(sf, call, source.Span{Start: 10, End: 500})
	require.ErrorIs(t, err, source.ErrOutOfRange)
}

func TestCollectorSortAndDedup(t *testing.T) {
	mk := func(rule string, start uint32, msg string) Finding {
		return Finding{RuleID: rule, Message: msg, Entity: Entity{Location: Location{
			Path: "a.kt", Span: source.Span{Start: start, End: start + 1},
		}}}
	}
	c := NewCollector(0)
	c.Add(mk("B", 5, "b"))
	c.Add(mk("A", 5, "a"))
	c.Add(mk("A", 1, "a"))
	c.Add(mk("B", 5, "b"))
	c.Dedup()
	c.Sort()

	got := c.Items()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "A", "B"}, []string{got[0].RuleID, got[1].RuleID, got[2].RuleID})
	assert.Equal(t, uint32(1), got[0].Entity.Location.Span.Start)

	// повторная сортировка ничего не меняет
	c.Sort()
	assert.Equal(t, got, c.Items())

	assert.Equal(t, map[string]int{"A": 2, "B": 1}, CountByRule(got))
}

func TestCollectorDuplicatesDoNotUseLimit(t *testing.T) {
	c := NewCollector(2)
	assert.True(t, c.Add(Finding{RuleID: "A", Message: "m"}))
	assert.False(t, c.Add(Finding{RuleID: "A", Message: "m"}))
	assert.True(t, c.Add(Finding{RuleID: "B", Message: "m"}))
	assert.False(t, c.Add(Finding{RuleID: "C", Message: "m"}))
	assert.Equal(t, 2, c.Len())
}

func TestCollectorLimitAndMerge(t *testing.T) {
	a := NewCollector(1)
	assert.True(t, a.Add(Finding{RuleID: "X"}))
	assert.False(t, a.Add(Finding{RuleID: "Y"}))

	b := NewCollector(0)
	b.Add(Finding{RuleID: "Z"})
	a.Merge(b)
	assert.Equal(t, 2, a.Len())

	merged := Merge(a.Items(), []Finding{{RuleID: "A"}})
	assert.Equal(t, "A", merged[0].RuleID)
}
