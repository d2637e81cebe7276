package source

import (
	"errors"
	"fmt"
)

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, tree dump).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source file.
// A File is immutable once added to a FileSet.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, counted in characters
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// ErrOutOfRange is matched by every OutOfRangeError.
var ErrOutOfRange = errors.New("offset out of range")

// OutOfRangeError reports an offset beyond the file bounds. It always points
// to a bug in the caller (a rule or the front end), never to bad user input.
type OutOfRangeError struct {
	Path   string
	Offset uint32
	Len    uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: offset %d out of range [0, %d]", e.Path, e.Offset, e.Len)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
