package source

import (
	"crypto/sha256"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves byte offsets
// into line/column positions.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string            // базовая директория для относительных путей
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet whose relative paths are computed against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// SetBaseDir устанавливает базовую директорию для относительных путей.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	// индекс всегда указывает на последнюю версию файла
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.AddNormalized(path, content, 0), nil
}

// AddNormalized strips a UTF-8 BOM, folds CRLF line endings and calls Add.
func (fileSet *FileSet) AddNormalized(path string, content []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags)
}

// AddVirtual adds a virtual file (stdin, test, or tree dump) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID, or nil for an unknown ID.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Len returns the number of files (all versions) in the set.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol, err error) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}, fmt.Errorf("unknown file id %d", span.File)
	}
	return f.ResolveSpan(span)
}

// Len returns the content length in bytes.
func (f *File) Len() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// OffsetToLocation converts a byte offset into a 1-based line/column pair.
// Offset len(Content) is the end-of-file position and is valid.
func (f *File) OffsetToLocation(off uint32) (LineCol, error) {
	if off > f.Len() {
		return LineCol{}, &OutOfRangeError{Path: f.Path, Offset: off, Len: f.Len()}
	}
	return toLineCol(f.Content, f.LineIdx, off), nil
}

// ResolveSpan converts both ends of span into line/column positions.
func (f *File) ResolveSpan(span Span) (start, end LineCol, err error) {
	if start, err = f.OffsetToLocation(span.Start); err != nil {
		return LineCol{}, LineCol{}, err
	}
	if end, err = f.OffsetToLocation(span.End); err != nil {
		return LineCol{}, LineCol{}, err
	}
	return start, end, nil
}

// TextInRange returns the exact substring covered by span.
func (f *File) TextInRange(span Span) (string, error) {
	if span.End < span.Start {
		return "", fmt.Errorf("%s: inverted span %d-%d", f.Path, span.Start, span.End)
	}
	if span.End > f.Len() {
		return "", &OutOfRangeError{Path: f.Path, Offset: span.End, Len: f.Len()}
	}
	return string(f.Content[span.Start:span.End]), nil
}

// Line is one physical line of a file, without its terminating '\n'.
type Line struct {
	Number uint32 // 1-based
	Start  uint32 // byte offset of the first character
	Text   string
}

// Span returns the span of the line text within file id.
func (l Line) Span(id FileID) Span {
	n, err := safecast.Conv[uint32](len(l.Text))
	if err != nil {
		panic(fmt.Errorf("line length overflow: %w", err))
	}
	return Span{File: id, Start: l.Start, End: l.Start + n}
}

// LineCount returns the number of physical lines. An empty file has one empty line.
func (f *File) LineCount() uint32 {
	n, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	return n + 1
}

// Lines yields every physical line in order. Each call re-reads the file.
func (f *File) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		var start uint32
		for i, nl := range f.LineIdx {
			num, err := safecast.Conv[uint32](i + 1)
			if err != nil {
				panic(fmt.Errorf("line number overflow: %w", err))
			}
			if !yield(Line{Number: num, Start: start, Text: string(f.Content[start:nl])}) {
				return
			}
			start = nl + 1
		}
		yield(Line{Number: f.LineCount(), Start: start, Text: string(f.Content[start:])})
	}
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 || lineNum > f.LineCount() {
		return ""
	}
	var start uint32
	if lineNum > 1 {
		start = f.LineIdx[lineNum-2] + 1
	}
	end := f.Len()
	if lineNum-1 < f.LineCount()-1 {
		end = f.LineIdx[lineNum-1]
	}
	return string(f.Content[start:end])
}

// FormatPath форматирует путь к файлу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
// baseDir: базовая директория для относительных путей (игнорируется для других режимов)
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	case "auto":
		// короткие или относительные пути как есть, иначе basename
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)

	default:
		return f.Path
	}
}

func toLineCol(content []byte, lineIdx []uint32, off uint32) LineCol {
	// количество '\n' строго до off = индекс строки (0-based)
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	lineNum, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	col, err := safecast.Conv[uint32](utf8.RuneCount(content[startOff:off]) + 1)
	if err != nil {
		panic(fmt.Errorf("column overflow: %w", err))
	}
	return LineCol{Line: lineNum, Col: col}
}
