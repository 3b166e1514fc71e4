package stream

import (
	"fmt"

	"github.com/joshuapare/dtbkit/internal/buf"
	"github.com/joshuapare/dtbkit/internal/format"
)

// Header is the validated blob header.
type Header = format.Header

// Traverser is a pull iterator over the structure block. It is not safe for
// concurrent use.
type Traverser struct {
	blob      []byte
	hdr       Header
	strings   []byte
	off       int
	structEnd int
	depth     int
	closed    bool // the root node has been closed
	done      bool
	err       error
}

// NewTraverser validates the header of blob and positions a Traverser at
// the first token of the structure block.
func NewTraverser(blob []byte) (*Traverser, error) {
	h, err := format.ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	return &Traverser{
		blob:      blob,
		hdr:       h,
		strings:   blob[h.StringsOffset:h.StringsEnd()],
		off:       int(h.StructOffset),
		structEnd: h.StructEnd(),
	}, nil
}

// Header returns the validated header.
func (t *Traverser) Header() Header { return t.hdr }

// Depth returns the number of currently open nodes.
func (t *Traverser) Depth() int { return t.depth }

// Offset returns the blob offset of the next token to decode.
func (t *Traverser) Offset() int { return t.off }

// Next decodes exactly one structural token, skipping NOPs. After EventEnd it
// keeps returning EventEnd. Once an error is returned every later call
// returns the same error.
func (t *Traverser) Next() (Event, error) {
	if t.err != nil {
		return Event{}, t.err
	}
	if t.done {
		return Event{Kind: EventEnd, Offset: t.off}, nil
	}
	ev, err := t.next()
	if err != nil {
		t.err = err
		return Event{}, err
	}
	return ev, nil
}

func (t *Traverser) next() (Event, error) {
	for {
		start := t.off
		if !buf.Has(t.blob[:t.structEnd], start, format.TokenSize) {
			return Event{}, t.fail(start, "token past end of structure block")
		}
		tok := buf.U32BE(t.blob[start:])
		t.off += format.TokenSize

		switch tok {
		case format.TokenNop:
			continue

		case format.TokenBeginNode:
			if t.closed {
				return Event{}, t.fail(start, "node after root was closed")
			}
			name, ok := buf.CString(t.blob[:t.structEnd], t.off)
			if !ok {
				return Event{}, t.fail(start, "unterminated node name")
			}
			t.off = buf.Align4(t.off + len(name) + 1)
			if t.off > t.structEnd {
				return Event{}, t.fail(start, "node name padding past end of structure block")
			}
			if t.depth >= format.MaxDepth {
				return Event{}, t.fail(start, fmt.Sprintf("node nesting deeper than %d", format.MaxDepth))
			}
			t.depth++
			return Event{Kind: EventBeginNode, Name: name, Offset: start}, nil

		case format.TokenEndNode:
			if t.depth == 0 {
				return Event{}, t.fail(start, "END_NODE without open node")
			}
			t.depth--
			if t.depth == 0 {
				t.closed = true
			}
			return Event{Kind: EventEndNode, Offset: start}, nil

		case format.TokenProp:
			return t.prop(start)

		case format.TokenEnd:
			if !t.closed || t.depth != 0 {
				return Event{}, t.fail(start, "END before root node was closed")
			}
			if t.off != t.structEnd {
				return Event{}, t.fail(start, fmt.Sprintf("END at %#x but structure block ends at %#x", t.off, t.structEnd))
			}
			t.done = true
			return Event{Kind: EventEnd, Offset: start}, nil

		default:
			return Event{}, t.fail(start, fmt.Sprintf("unexpected token %#x", tok))
		}
	}
}

func (t *Traverser) prop(start int) (Event, error) {
	if t.depth == 0 {
		return Event{}, t.fail(start, "property outside of a node")
	}
	hdr, ok := buf.Slice(t.blob[:t.structEnd], t.off, format.PropHeaderSize)
	if !ok {
		return Event{}, t.fail(start, "truncated property header")
	}
	length := int(buf.U32BE(hdr))
	nameOff := int(buf.U32BE(hdr[4:]))
	t.off += format.PropHeaderSize

	value, ok := buf.Slice(t.blob[:t.structEnd], t.off, length)
	if !ok {
		return Event{}, t.fail(start, fmt.Sprintf("property value of %d bytes past end of structure block", length))
	}
	name, ok := buf.CString(t.strings, nameOff)
	if !ok {
		return Event{}, t.fail(start, fmt.Sprintf("property name offset %#x outside strings block", nameOff))
	}
	t.off = buf.Align4(t.off + length)
	if t.off > t.structEnd {
		return Event{}, t.fail(start, "property padding past end of structure block")
	}
	return Event{Kind: EventProp, Name: name, Value: value, Offset: start}, nil
}

func (t *Traverser) fail(off int, msg string) error {
	return fmt.Errorf("structure block at %#x: %s: %w", off, msg, format.ErrBadStructure)
}
