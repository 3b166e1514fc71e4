// Package format houses low-level decoders for the Flattened Device Tree blob
// format. The goal is to keep the parsing focused, allocation-free where
// possible, and independent from the public API so higher-level packages can
// orchestrate the data in a more ergonomic form.
package format

// Magic is the big-endian word at offset 0 of every blob.
const Magic = 0xD00DFEED

// Version is the only structure version accepted by ParseHeader.
const Version = 17

// Header layout. Every field is a big-endian uint32.
//
//	Offset  Field
//	------  -----------------------------
//	 0x00   magic
//	 0x04   totalsize
//	 0x08   off_dt_struct
//	 0x0C   off_dt_strings
//	 0x10   off_mem_rsvmap
//	 0x14   version
//	 0x18   last_comp_version
//	 0x1C   boot_cpuid_phys
//	 0x20   size_dt_strings
//	 0x24   size_dt_struct
const (
	MagicOffset           = 0x00
	TotalSizeOffset       = 0x04
	StructOffsetOffset    = 0x08
	StringsOffsetOffset   = 0x0C
	RsvMapOffsetOffset    = 0x10
	VersionOffset         = 0x14
	LastCompVersionOffset = 0x18
	BootCPUOffset         = 0x1C
	StringsSizeOffset     = 0x20
	StructSizeOffset      = 0x24

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 0x28

	// PeekSize is the number of leading bytes PeekTotalSize needs.
	PeekSize = TotalSizeOffset + 4
)

// Structure block tokens.
const (
	TokenBeginNode uint32 = 0x1
	TokenEndNode   uint32 = 0x2
	TokenProp      uint32 = 0x3
	TokenNop       uint32 = 0x4
	TokenEnd       uint32 = 0x9
)

const (
	// TokenSize is the width of a structure block token.
	TokenSize = 4

	// PropHeaderSize is the {len, nameoff} pair following a PROP token.
	PropHeaderSize = 8

	// ReservationEntrySize is one {address, size} pair of the memory
	// reservation map, both big-endian uint64.
	ReservationEntrySize = 16

	// ReservationAlignment is the required alignment of off_mem_rsvmap.
	ReservationAlignment = 8

	// StructAlignment is the required alignment of off_dt_struct.
	StructAlignment = 4
)

// MaxDepth is the deepest node nesting accepted, counting the root as 1.
const MaxDepth = 64

// MaxCells is the widest address or size field, in cells, that decodes into
// a 128-bit integer.
const MaxCells = 4
