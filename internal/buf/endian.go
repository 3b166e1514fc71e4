// Package buf contains helpers for endian-safe decoding routines.
package buf

import (
	"encoding/binary"

	"lukechampine.com/uint128"
)

// CellSize is the width in bytes of one device tree cell.
const CellSize = 4

// U32BE reads a big-endian uint32 from b. Returns 0 when b is too short.
func U32BE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// U64BE reads a big-endian uint64 from b. Returns 0 when b is too short.
func U64BE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Cells folds n consecutive big-endian cells of b into a 128-bit integer,
// most significant cell first. Callers must ensure n <= 4 and that b holds
// at least n cells; missing cells read as zero.
func Cells(b []byte, n int) uint128.Uint128 {
	var v uint128.Uint128
	for i := range n {
		v = v.Lsh(32).Or64(uint64(U32BE(b[min(i*CellSize, len(b)):])))
	}
	return v
}

// Words splits b into big-endian 32-bit words. len(b) must be a multiple of 4.
func Words(b []byte) []uint32 {
	out := make([]uint32, len(b)/CellSize)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[i*CellSize:])
	}
	return out
}
