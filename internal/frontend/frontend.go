// Package frontend turns the output of an external Kotlin front end into
// syntax trees. spotter does not parse Kotlin itself: a front end writes one
// tree dump per source file and DumpLoader reads it back.
package frontend

import (
	"context"
	"errors"
	"strings"

	"spotter/internal/syntax"
)

// Parser produces the syntax tree of one input.
type Parser interface {
	Parse(ctx context.Context, path string) (*syntax.SourceFile, error)
}

// DumpVersion is the dump schema this build understands.
const DumpVersion = 1

var (
	// ErrUnsupportedVersion is returned for dumps written by a newer front end.
	ErrUnsupportedVersion = errors.New("unsupported tree dump version")
	// ErrMalformedDump wraps every structural problem of a dump.
	ErrMalformedDump = errors.New("malformed tree dump")
)

// Format is the encoding of a dump file.
type Format uint8

const (
	FormatMsgpack Format = iota
	FormatJSON
)

// Dump file extensions.
const (
	ExtMsgpack = ".ktree"
	ExtJSON    = ".ktree.json"
)

// FormatOf picks the encoding from the file name.
func FormatOf(path string) (Format, bool) {
	switch {
	case strings.HasSuffix(path, ExtJSON):
		return FormatJSON, true
	case strings.HasSuffix(path, ExtMsgpack):
		return FormatMsgpack, true
	}
	return 0, false
}

// IsDump reports whether path names a tree dump.
func IsDump(path string) bool {
	_, ok := FormatOf(path)
	return ok
}

// Dump is the serialised form of one parsed file. Nodes are listed in
// pre-order; Parent is the index of an earlier node, -1 for the root.
type Dump struct {
	Version  int        `msgpack:"version" json:"version"`
	Path     string     `msgpack:"path" json:"path"`
	Text     *string    `msgpack:"text,omitempty" json:"text,omitempty"`
	HasTypes bool       `msgpack:"has_types" json:"has_types"`
	Nodes    []DumpNode `msgpack:"nodes" json:"nodes"`
}

// DumpNode is one syntax node. Offsets are bytes into the source text.
type DumpNode struct {
	Kind        string           `msgpack:"kind" json:"kind"`
	Role        string           `msgpack:"role,omitempty" json:"role,omitempty"`
	Parent      int              `msgpack:"parent" json:"parent"`
	Start       uint32           `msgpack:"start" json:"start"`
	End         uint32           `msgpack:"end" json:"end"`
	Name        string           `msgpack:"name,omitempty" json:"name,omitempty"`
	Text        string           `msgpack:"text,omitempty" json:"text,omitempty"`
	Annotations []DumpAnnotation `msgpack:"annotations,omitempty" json:"annotations,omitempty"`
	Type        *DumpType        `msgpack:"type,omitempty" json:"type,omitempty"`
}

type DumpAnnotation struct {
	Name    string   `msgpack:"name" json:"name"`
	Args    []string `msgpack:"args,omitempty" json:"args,omitempty"`
	Start   uint32   `msgpack:"start" json:"start"`
	End     uint32   `msgpack:"end" json:"end"`
	UseSite string   `msgpack:"use_site,omitempty" json:"use_site,omitempty"`
}

type DumpType struct {
	Name     string `msgpack:"name" json:"name"`
	Nullable bool   `msgpack:"nullable,omitempty" json:"nullable,omitempty"`
}
