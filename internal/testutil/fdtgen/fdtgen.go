// Package fdtgen writes small, bit-exact device tree blobs for tests.
//
// It is a fixture generator, not an encoder: values are supplied as raw
// bytes or cells and nothing is validated, so tests can produce malformed
// blobs on purpose.
package fdtgen

import (
	"encoding/binary"

	"github.com/joshuapare/dtbkit/internal/format"
)

// Builder accumulates structure block tokens and strings.
type Builder struct {
	structure []byte
	strtab    []byte
	names     map[string]uint32
	rsv       []format.Reservation

	// Version overrides the header version when non-zero.
	Version uint32
	// Magic overrides the header magic when non-zero.
	Magic uint32
	// OmitEnd leaves the trailing END token off the structure block.
	OmitEnd bool
	// BootCPU is written to boot_cpuid_phys.
	BootCPU uint32
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{names: map[string]uint32{}}
}

func (b *Builder) word(v uint32) {
	b.structure = binary.BigEndian.AppendUint32(b.structure, v)
}

func (b *Builder) pad() {
	for len(b.structure)%4 != 0 {
		b.structure = append(b.structure, 0)
	}
}

// Token emits a raw token word.
func (b *Builder) Token(tok uint32) *Builder {
	b.word(tok)
	return b
}

// BeginNode opens a node.
func (b *Builder) BeginNode(name string) *Builder {
	b.word(format.TokenBeginNode)
	b.structure = append(b.structure, name...)
	b.structure = append(b.structure, 0)
	b.pad()
	return b
}

// EndNode closes the innermost open node.
func (b *Builder) EndNode() *Builder {
	b.word(format.TokenEndNode)
	return b
}

// Nop emits a NOP token.
func (b *Builder) Nop() *Builder {
	b.word(format.TokenNop)
	return b
}

// Prop emits a property with a raw value.
func (b *Builder) Prop(name string, value []byte) *Builder {
	off, ok := b.names[name]
	if !ok {
		off = uint32(len(b.strtab))
		b.names[name] = off
		b.strtab = append(b.strtab, name...)
		b.strtab = append(b.strtab, 0)
	}
	b.word(format.TokenProp)
	b.word(uint32(len(value)))
	b.word(off)
	b.structure = append(b.structure, value...)
	b.pad()
	return b
}

// PropCells emits a property whose value is a list of big-endian cells.
func (b *Builder) PropCells(name string, cells ...uint32) *Builder {
	return b.Prop(name, Cells(cells...))
}

// PropStrings emits a property whose value is NUL-terminated strings.
func (b *Builder) PropStrings(name string, values ...string) *Builder {
	return b.Prop(name, Strings(values...))
}

// PropEmpty emits a zero-length property.
func (b *Builder) PropEmpty(name string) *Builder {
	return b.Prop(name, nil)
}

// Reserve adds a memory reservation entry.
func (b *Builder) Reserve(addr, size uint64) *Builder {
	b.rsv = append(b.rsv, format.Reservation{Address: addr, Size: size})
	return b
}

// Bytes lays out header, reservation map, structure and strings blocks.
func (b *Builder) Bytes() []byte {
	structure := b.structure
	if !b.OmitEnd {
		structure = binary.BigEndian.AppendUint32(append([]byte(nil), structure...), format.TokenEnd)
	}

	rsvOff := format.HeaderSize
	structOff := rsvOff + (len(b.rsv)+1)*format.ReservationEntrySize
	stringsOff := structOff + len(structure)
	total := stringsOff + len(b.strtab)

	magic := b.Magic
	if magic == 0 {
		magic = format.Magic
	}
	version := b.Version
	if version == 0 {
		version = format.Version
	}

	out := make([]byte, 0, total)
	for _, v := range []uint32{
		magic,
		uint32(total),
		uint32(structOff),
		uint32(stringsOff),
		uint32(rsvOff),
		version,
		16,
		b.BootCPU,
		uint32(len(b.strtab)),
		uint32(len(structure)),
	} {
		out = binary.BigEndian.AppendUint32(out, v)
	}
	for _, r := range b.rsv {
		out = binary.BigEndian.AppendUint64(out, r.Address)
		out = binary.BigEndian.AppendUint64(out, r.Size)
	}
	out = append(out, make([]byte, format.ReservationEntrySize)...)
	out = append(out, structure...)
	out = append(out, b.strtab...)
	return out
}

// Nested returns a blob of depth nodes, each the only child of the one
// above it.
func Nested(depth int) []byte {
	b := New()
	if depth > 0 {
		b.BeginNode("")
	}
	for i := 1; i < depth; i++ {
		b.BeginNode("n")
	}
	for i := 0; i < depth; i++ {
		b.EndNode()
	}
	return b.Bytes()
}

// Cells encodes cells big-endian.
func Cells(cells ...uint32) []byte {
	out := make([]byte, 0, len(cells)*4)
	for _, c := range cells {
		out = binary.BigEndian.AppendUint32(out, c)
	}
	return out
}

// Strings encodes values as consecutive NUL-terminated strings.
func Strings(values ...string) []byte {
	var out []byte
	for _, v := range values {
		out = append(out, v...)
		out = append(out, 0)
	}
	return out
}
