package buf

import (
	"bytes"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Align4 rounds off up to the next multiple of four.
func Align4(off int) int {
	return (off + 3) &^ 3
}

// CString returns the bytes of the NUL-terminated string starting at off,
// excluding the terminator. ok is false when off is out of range or no
// terminator exists before len(b).
func CString(b []byte, off int) ([]byte, bool) {
	if off < 0 || off >= len(b) {
		return nil, false
	}
	n := bytes.IndexByte(b[off:], 0)
	if n < 0 {
		return nil, false
	}
	return b[off : off+n], true
}
