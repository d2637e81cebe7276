package syntax

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// Digest hashes everything rules can observe in the tree: node kinds,
// roles, spans, names, text, structure, annotations and type information.
// Trees built the same way over the same file have equal digests.
func (t *Tree) Digest() [32]byte {
	h := sha256.New()
	var buf [4]byte
	u32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	flag := byte(0)
	if t.HasTypes() {
		flag = 1
	}
	h.Write([]byte{flag})
	u32(uint32(t.root))
	for _, n := range t.nodes.Slice() {
		u32(uint32(n.Kind))
		u32(uint32(n.Role))
		u32(n.Span.Start)
		u32(n.Span.End)
		u32(uint32(n.Parent))
		writeString(h, u32, n.Name)
		writeString(h, u32, n.Text)
		u32(uint32(len(n.Annotations)))
		for _, a := range n.Annotations {
			writeString(h, u32, a.Name)
			writeString(h, u32, a.UseSite)
			u32(a.Span.Start)
			u32(a.Span.End)
			u32(uint32(len(a.Args)))
			for _, arg := range a.Args {
				writeString(h, u32, arg)
			}
		}
		if n.Type == nil {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		writeString(h, u32, n.Type.Name)
		if n.Type.Nullable {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// строки с префиксом длины, чтобы соседние поля не склеивались
func writeString(h hash.Hash, u32 func(uint32), s string) {
	u32(uint32(len(s)))
	h.Write([]byte(s))
}
