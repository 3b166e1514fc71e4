package format

import (
	"fmt"

	"github.com/joshuapare/dtbkit/internal/buf"
)

// Header captures the fixed FDT header. Offsets are relative to the start of
// the blob.
type Header struct {
	TotalSize       uint32
	StructOffset    uint32
	StringsOffset   uint32
	RsvMapOffset    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUPhys     uint32
	StringsSize     uint32
	StructSize      uint32
}

// StructEnd is the offset one past the last byte of the structure block.
func (h Header) StructEnd() int {
	return int(h.StructOffset) + int(h.StructSize)
}

// StringsEnd is the offset one past the last byte of the strings block.
func (h Header) StringsEnd() int {
	return int(h.StringsOffset) + int(h.StringsSize)
}

// ParseHeader validates and extracts the header of a blob. Checks run in a
// fixed order: minimum length, magic, declared total size, version, then
// block placement.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %d bytes, need %d: %w", len(b), HeaderSize, ErrTruncated)
	}
	if magic := buf.U32BE(b[MagicOffset:]); magic != Magic {
		return Header{}, fmt.Errorf("header: magic %#08x: %w", magic, ErrBadMagic)
	}
	h := Header{
		TotalSize:       buf.U32BE(b[TotalSizeOffset:]),
		StructOffset:    buf.U32BE(b[StructOffsetOffset:]),
		StringsOffset:   buf.U32BE(b[StringsOffsetOffset:]),
		RsvMapOffset:    buf.U32BE(b[RsvMapOffsetOffset:]),
		Version:         buf.U32BE(b[VersionOffset:]),
		LastCompVersion: buf.U32BE(b[LastCompVersionOffset:]),
		BootCPUPhys:     buf.U32BE(b[BootCPUOffset:]),
		StringsSize:     buf.U32BE(b[StringsSizeOffset:]),
		StructSize:      buf.U32BE(b[StructSizeOffset:]),
	}
	if uint64(len(b)) < uint64(h.TotalSize) {
		return Header{}, fmt.Errorf("header: totalsize %d exceeds buffer of %d bytes: %w",
			h.TotalSize, len(b), ErrTruncated)
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("header: version %d: %w", h.Version, ErrUnsupportedVersion)
	}
	if err := h.checkBlocks(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h Header) checkBlocks() error {
	total := uint64(h.TotalSize)
	if total < HeaderSize {
		return fmt.Errorf("header: totalsize %d smaller than header: %w", h.TotalSize, ErrBadStructure)
	}
	if h.StructOffset%StructAlignment != 0 {
		return fmt.Errorf("header: structure block offset %#x misaligned: %w", h.StructOffset, ErrBadStructure)
	}
	if uint64(h.StructOffset)+uint64(h.StructSize) > total {
		return fmt.Errorf("header: structure block [%#x,+%#x) outside totalsize %#x: %w",
			h.StructOffset, h.StructSize, h.TotalSize, ErrBadStructure)
	}
	if uint64(h.StringsOffset)+uint64(h.StringsSize) > total {
		return fmt.Errorf("header: strings block [%#x,+%#x) outside totalsize %#x: %w",
			h.StringsOffset, h.StringsSize, h.TotalSize, ErrBadStructure)
	}
	if h.RsvMapOffset%ReservationAlignment != 0 || uint64(h.RsvMapOffset) >= total {
		return fmt.Errorf("header: reservation map offset %#x invalid: %w", h.RsvMapOffset, ErrBadStructure)
	}
	return nil
}

// PeekTotalSize reads the magic and totalsize fields from the first eight
// bytes of b. It is meant for sizing a buffer before the rest of the blob is
// available and performs no other validation; it is not a substitute for
// ParseHeader.
func PeekTotalSize(b []byte) (uint32, error) {
	if len(b) < PeekSize {
		return 0, fmt.Errorf("peek: %d bytes, need %d: %w", len(b), PeekSize, ErrTruncated)
	}
	if magic := buf.U32BE(b[MagicOffset:]); magic != Magic {
		return 0, fmt.Errorf("peek: magic %#08x: %w", magic, ErrBadMagic)
	}
	return buf.U32BE(b[TotalSizeOffset:]), nil
}
