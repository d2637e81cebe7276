package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"spotter/internal/source"
	"spotter/internal/syntax"
	"spotter/internal/trace"
)

// Decode parses a dump in the given format.
func Decode(data []byte, format Format) (*Dump, error) {
	var d Dump
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &d)
	default:
		err = msgpack.Unmarshal(data, &d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDump, err)
	}
	if d.Version > DumpVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, d.Version, DumpVersion)
	}
	return &d, nil
}

// Encode serialises d; front ends written in Go and tests use it.
func Encode(d *Dump, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	return msgpack.Marshal(d)
}

// DumpLoader reads tree dumps into a FileSet. It is not safe for concurrent
// use because FileSet is not.
type DumpLoader struct {
	FS *source.FileSet
}

// NewDumpLoader returns a loader adding files to fs.
func NewDumpLoader(fs *source.FileSet) *DumpLoader {
	return &DumpLoader{FS: fs}
}

// Parse loads the dump at path. The source text is taken from the dump when
// embedded, otherwise read from Dump.Path (relative paths are resolved
// against the dump's directory). Text is used byte for byte so offsets
// written by the front end stay valid.
func (l *DumpLoader) Parse(ctx context.Context, path string) (*syntax.SourceFile, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "load", trace.CurrentSpan(ctx)).
		WithExtra("dump", path)
	defer span.End("")

	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%s: not a tree dump (want %s or %s)", path, ExtMsgpack, ExtJSON)
	}
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf, err := l.Build(d, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sf, nil
}

// Build registers the source of d and converts its nodes. dir resolves a
// relative Dump.Path.
func (l *DumpLoader) Build(d *Dump, dir string) (*syntax.SourceFile, error) {
	if d.Path == "" {
		return nil, fmt.Errorf("%w: missing source path", ErrMalformedDump)
	}
	srcPath := d.Path
	if !filepath.IsAbs(srcPath) && dir != "" {
		srcPath = filepath.Join(dir, srcPath)
	}

	var id source.FileID
	switch {
	case d.Text != nil:
		flags := source.FileFlags(0)
		if _, err := os.Stat(srcPath); errors.Is(err, os.ErrNotExist) {
			flags = source.FileVirtual
		}
		id = l.FS.Add(srcPath, []byte(*d.Text), flags)
	default:
		// #nosec G304 -- path comes from the dump
		content, err := os.ReadFile(srcPath)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		id = l.FS.Add(srcPath, content, 0)
	}
	file := l.FS.Get(id)

	tree, err := buildTree(d, id, file.Len())
	if err != nil {
		return nil, err
	}
	return &syntax.SourceFile{File: file, Tree: tree}, nil
}

func buildTree(d *Dump, file source.FileID, size uint32) (*syntax.Tree, error) {
	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedDump)
	}
	root := d.Nodes[0]
	if root.Kind != syntax.KindFile.String() || root.Parent != -1 {
		return nil, fmt.Errorf("%w: first node must be the file root", ErrMalformedDump)
	}
	if root.End > size {
		return nil, fmt.Errorf("%w: root span ends at %d past the end of the text (%d)", ErrMalformedDump, root.End, size)
	}

	b := syntax.NewBuilder(file, uint(len(d.Nodes)))
	b.SetHasTypes(d.HasTypes)
	ids := make([]syntax.NodeID, len(d.Nodes))
	ids[0] = b.Root(root.Start, root.End)
	if err := annotate(b, ids[0], root); err != nil {
		return nil, err
	}

	for i := 1; i < len(d.Nodes); i++ {
		dn := d.Nodes[i]
		if dn.Parent < 0 || dn.Parent >= i {
			return nil, fmt.Errorf("%w: node %d has parent %d, want an earlier node", ErrMalformedDump, i, dn.Parent)
		}
		kind, err := syntax.ParseKind(dn.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrMalformedDump, i, err)
		}
		role, err := syntax.ParseRole(dn.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrMalformedDump, i, err)
		}
		n := syntax.Node{
			Kind: kind,
			Role: role,
			Span: source.Span{Start: dn.Start, End: dn.End},
			Name: dn.Name,
			Text: dn.Text,
		}
		if dn.Type != nil {
			n.Type = &syntax.TypeInfo{Name: dn.Type.Name, Nullable: dn.Type.Nullable}
		}
		ids[i] = b.Add(ids[dn.Parent], n)
		if err := annotate(b, ids[i], dn); err != nil {
			return nil, err
		}
	}

	tree, err := b.Finish()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDump, err)
	}
	return tree, nil
}

func annotate(b *syntax.Builder, id syntax.NodeID, dn DumpNode) error {
	for _, a := range dn.Annotations {
		if a.Start > a.End || a.Start < dn.Start || a.End > dn.End {
			return fmt.Errorf("%w: annotation %s [%d,%d) lies outside its %s node [%d,%d)",
				ErrMalformedDump, a.Name, a.Start, a.End, dn.Kind, dn.Start, dn.End)
		}
		b.Annotate(id, syntax.Annotation{
			Name:    a.Name,
			Args:    a.Args,
			Span:    source.Span{Start: a.Start, End: a.End},
			UseSite: a.UseSite,
		})
	}
	return nil
}
