package source

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("Test.kt", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("Test.kt", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("Test.kt")
	if !exists || latestID != id2 {
		t.Errorf("Expected latest ID %d, got %d (exists=%v)", id2, latestID, exists)
	}

	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("Expected first file content 'hello world', got %q", got)
	}
	if fs.Get(42) != nil {
		t.Error("Expected nil for unknown FileID")
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("a\nb\n"))
	file := fs.Get(id)

	if !slices.Equal(file.LineIdx, []uint32{1, 3}) {
		t.Errorf("Expected LineIdx [1 3], got %v", file.LineIdx)
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
	if file.LineCount() != 3 {
		t.Errorf("Expected 3 lines, got %d", file.LineCount())
	}
}

func TestOffsetToLocation(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("Test.kt", []byte("fun f() {\n    val x = 1\n}\n"))
	file := fs.Get(id)

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"file start", 0, LineCol{Line: 1, Col: 1}},
		{"inside first line", 4, LineCol{Line: 1, Col: 5}},
		{"newline belongs to its line", 9, LineCol{Line: 1, Col: 10}},
		{"start of second line", 10, LineCol{Line: 2, Col: 1}},
		{"val keyword", 14, LineCol{Line: 2, Col: 5}},
		{"closing brace", 24, LineCol{Line: 3, Col: 1}},
		{"end of file", 26, LineCol{Line: 4, Col: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := file.OffsetToLocation(tt.off)
			if err != nil {
				t.Fatalf("OffsetToLocation(%d) failed: %v", tt.off, err)
			}
			if got != tt.want {
				t.Errorf("OffsetToLocation(%d) = %v, want %v", tt.off, got, tt.want)
			}
		})
	}
}

func TestOffsetToLocationOutOfRange(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("Test.kt", []byte("abc"))

	_, err := fs.Get(id).OffsetToLocation(4)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	var oor *OutOfRangeError
	if !errors.As(err, &oor) || oor.Offset != 4 || oor.Len != 3 {
		t.Fatalf("unexpected error payload: %#v", err)
	}
}

// TestResolveUTF8 проверяет, что колонки считаются в символах, а не в байтах.
func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("Test.kt", []byte("val α = 1\n"))

	// "=" стоит после 2-байтовой α
	span := Span{File: id, Start: 7, End: 8}
	start, end, err := fs.Resolve(span)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if start != (LineCol{Line: 1, Col: 7}) {
		t.Errorf("Expected start 1:7, got %v", start)
	}
	if end != (LineCol{Line: 1, Col: 8}) {
		t.Errorf("Expected end 1:8, got %v", end)
	}
}

func TestTextInRange(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("Test.kt", []byte("import foo.*\n"))
	file := fs.Get(id)

	got, err := file.TextInRange(Span{File: id, Start: 7, End: 12})
	if err != nil {
		t.Fatalf("TextInRange failed: %v", err)
	}
	if got != "foo.*" {
		t.Errorf("TextInRange = %q, want %q", got, "foo.*")
	}

	if _, err := file.TextInRange(Span{File: id, Start: 7, End: 99}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := file.TextInRange(Span{File: id, Start: 5, End: 2}); err == nil {
		t.Error("expected error for inverted span")
	}
}

func TestLinesAndGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("Test.kt", []byte("a\n\nbc"))
	file := fs.Get(id)

	var got []Line
	for l := range file.Lines() {
		got = append(got, l)
	}
	want := []Line{
		{Number: 1, Start: 0, Text: "a"},
		{Number: 2, Start: 2, Text: ""},
		{Number: 3, Start: 3, Text: "bc"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Lines() = %+v, want %+v", got, want)
	}

	// повторный обход даёт тот же результат
	count := 0
	for range file.Lines() {
		count++
	}
	if count != 3 {
		t.Errorf("second Lines() pass yielded %d lines", count)
	}

	for _, l := range want {
		if line := file.GetLine(l.Number); line != l.Text {
			t.Errorf("GetLine(%d) = %q, want %q", l.Number, line, l.Text)
		}
	}
	if file.GetLine(0) != "" || file.GetLine(4) != "" {
		t.Error("GetLine out of range should return empty string")
	}
}

func TestCRLFNormalization(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddNormalized("Test.kt", []byte("a\r\nb\rc\r\n"), 0)
	file := fs.Get(id)

	if string(file.Content) != "a\nb\rc\n" {
		t.Errorf("unexpected content %q", file.Content)
	}
	if file.Flags&FileNormalizedCRLF == 0 {
		t.Error("Expected FileNormalizedCRLF flag")
	}
}

func TestLoadBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Bom.kt")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFclass A"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "class A" {
		t.Errorf("BOM not removed: %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 {
		t.Error("Expected FileHadBOM flag")
	}
}
