package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/engine"
	"spotter/internal/frontend"
	"spotter/internal/rule"
	"spotter/internal/rules/style"
	"spotter/internal/source"
	"spotter/internal/syntax"
	"spotter/internal/testkit"
)

func newEngine(t *testing.T, yaml string) *engine.Engine {
	t.Helper()
	reg := rule.NewRegistry()
	require.NoError(t, style.Register(reg))
	user, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	eng, err := engine.New(reg, user, engine.Options{})
	require.NoError(t, err)
	return eng
}

// importFile is "import <pkg>.*\n" with one wildcard import.
func importFile(t *testing.T, path, pkg string) *syntax.SourceFile {
	text := "import " + pkg + ".*\n"
	f := testkit.NewFixture(t, path, text)
	list := f.Node(f.Root(), syntax.KindImportList, text[:len(text)-1])
	f.Node(list, syntax.KindImportDirective, text[:len(text)-1], testkit.Name(pkg+".*"))
	return f.Finish()
}

func importDump(pkg string) *frontend.Dump {
	text := "import " + pkg + ".*\n"
	end := uint32(len(text) - 1)
	return &frontend.Dump{
		Version: frontend.DumpVersion,
		Path:    pkg + ".kt",
		Text:    &text,
		Nodes: []frontend.DumpNode{
			{Kind: "file", Parent: -1, Start: 0, End: end + 1},
			{Kind: "import_list", Parent: 0, Start: 0, End: end},
			{Kind: "import", Parent: 1, Start: 0, End: end, Name: pkg + ".*"},
		},
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writeDump(t *testing.T, path string, d *frontend.Dump) {
	t.Helper()
	format, ok := frontend.FormatOf(path)
	require.True(t, ok)
	data, err := frontend.Encode(d, format)
	require.NoError(t, err)
	writeFile(t, path, data)
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a/A.kt.ktree", "a/B.kt.ktree.json", "build/gen/G.kt.ktree", "a/readme.md"} {
		writeFile(t, filepath.Join(dir, p), []byte("x"))
	}

	got, err := CollectInputs([]string{dir, filepath.Join(dir, "a", "A.kt.ktree")}, InputFilter{Excludes: []string{"build/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "A.kt.ktree"),
		filepath.Join(dir, "a", "B.kt.ktree.json"),
	}, got)

	got, err = CollectInputs([]string{dir}, InputFilter{Includes: []string{"**/*.json"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a", "B.kt.ktree.json")}, got)

	_, err = CollectInputs([]string{filepath.Join(dir, "a", "readme.md")}, InputFilter{})
	require.Error(t, err)
	_, err = CollectInputs([]string{filepath.Join(dir, "missing")}, InputFilter{})
	require.Error(t, err)
}

func TestAnalyzeFilesKeepsInputOrder(t *testing.T) {
	eng := newEngine(t, "")
	var files []*syntax.SourceFile
	for _, p := range []string{"z/Z.kt", "a/A.kt", "m/M.kt", "b/B.kt"} {
		files = append(files, importFile(t, p, "pkg"))
	}

	var (
		mu     sync.Mutex
		events []FileEvent
	)
	results, err := AnalyzeFiles(context.Background(), files, eng, AnalyzeOptions{
		Jobs: 2,
		OnEvent: func(ev FileEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, files[i].Path(), r.Path)
		assert.Len(t, r.Findings, 1)
	}
	done := 0
	for _, ev := range events {
		if ev.State == FileDone {
			done++
		}
	}
	assert.Equal(t, 4, done)
	assert.Len(t, events, 12)
}

func TestAnalyzeFilesStopsWhenCancelled(t *testing.T) {
	eng := newEngine(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeFiles(ctx, []*syntax.SourceFile{importFile(t, "A.kt", "a")}, eng, AnalyzeOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	eng := newEngine(t, "")

	sf := importFile(t, "A.kt", "a")
	first, err := AnalyzeFiles(context.Background(), []*syntax.SourceFile{sf}, eng, AnalyzeOptions{Cache: cache, Version: "test"})
	require.NoError(t, err)
	require.False(t, first[0].Cached)

	again := importFile(t, "A.kt", "a")
	second, err := AnalyzeFiles(context.Background(), []*syntax.SourceFile{again}, eng, AnalyzeOptions{Cache: cache, Version: "test"})
	require.NoError(t, err)
	require.True(t, second[0].Cached)
	assert.Equal(t, first[0].Findings[0].Message, second[0].Findings[0].Message)
	assert.Equal(t, first[0].Findings[0].Location(), second[0].Findings[0].Location())

	// другая версия или конфигурация даёт другой ключ
	third, err := AnalyzeFiles(context.Background(), []*syntax.SourceFile{again}, eng, AnalyzeOptions{Cache: cache, Version: "next"})
	require.NoError(t, err)
	assert.False(t, third[0].Cached)
	base := KeyInput{FileHash: sf.File.Hash, TreeDigest: sf.Tree.Digest(), Path: "A.kt", MatchPath: "A.kt", ConfigHash: "a", Version: "v"}
	other := base
	other.ConfigHash = "b"
	assert.NotEqual(t, CacheKey(base), CacheKey(other))

	require.NoError(t, cache.DropAll())
	var out CachedResult
	ok, err := cache.Get(CacheKey(KeyInput{
		FileHash:   sf.File.Hash,
		TreeDigest: sf.Tree.Digest(),
		Path:       sf.Path(),
		MatchPath:  eng.MatchPath(sf.Path()),
		ConfigHash: eng.Config().Hash(),
		Version:    "test",
	}), &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheSeparatesPaths(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	eng := newEngine(t, "style:\n  WildcardImport:\n    excludes: ['test/**']\n")

	files := []*syntax.SourceFile{importFile(t, "main/A.kt", "a"), importFile(t, "test/A.kt", "a")}
	opts := AnalyzeOptions{Cache: cache, Version: "test", Jobs: 1}
	for range 2 {
		res, err := AnalyzeFiles(context.Background(), files, eng, opts)
		require.NoError(t, err)
		assert.Len(t, res[0].Findings, 1)
		assert.Empty(t, res[1].Findings, "excluded path must not reuse findings of identical text")
	}
}

func TestCacheSeparatesTrees(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	eng := newEngine(t, "")
	opts := AnalyzeOptions{Cache: cache, Version: "test"}

	plain := importFile(t, "A.kt", "a")
	res, err := AnalyzeFiles(context.Background(), []*syntax.SourceFile{plain}, eng, opts)
	require.NoError(t, err)
	require.Len(t, res[0].Findings, 1)

	// тот же текст, но дерево с @file:Suppress
	text := "import a.*\n"
	f := testkit.NewFixture(t, "A.kt", text)
	list := f.Node(f.Root(), syntax.KindImportList, text[:len(text)-1])
	f.Node(list, syntax.KindImportDirective, text[:len(text)-1], testkit.Name("a.*"))
	f.Builder().Annotate(f.Root(), syntax.Annotation{
		Name:    "Suppress",
		Args:    []string{"WildcardImport"},
		UseSite: "file",
		Span:    source.Span{Start: 0, End: 0},
	})
	suppressed := f.Finish()
	require.Equal(t, plain.File.Hash, suppressed.File.Hash)
	require.NotEqual(t, plain.Tree.Digest(), suppressed.Tree.Digest())

	res, err = AnalyzeFiles(context.Background(), []*syntax.SourceFile{suppressed}, eng, opts)
	require.NoError(t, err)
	assert.False(t, res[0].Cached)
	assert.Empty(t, res[0].Findings)
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	require.NoError(t, c.Put(Digest{}, &CachedResult{}))
	ok, err := c.Get(Digest{}, &CachedResult{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DropAll())
}

func TestCheckEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, filepath.Join(dir, "src", "A.kt.ktree"), importDump("a"))
	writeDump(t, filepath.Join(dir, "src", "B.kt.ktree.json"), importDump("b"))
	writeFile(t, filepath.Join(dir, "src", "Broken.kt.ktree.json"), []byte("{"))

	var inputs []string
	res, err := Check(context.Background(), CheckRequest{
		Paths:   []string{dir},
		BaseDir: dir,
		Engine:  newEngine(t, ""),
		Inputs:  func(p []string) { inputs = p },
	})
	require.NoError(t, err)
	assert.Len(t, inputs, 3)
	require.Len(t, res.Files, 2)

	findings := res.Findings()
	require.Len(t, findings, 2)
	assert.Equal(t, "WildcardImport", findings[0].RuleID)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.FrontendTreeInvalid, res.Diagnostics[0].Code)
	assert.Contains(t, res.Diagnostics[0].Path, "Broken.kt.ktree.json")
}
