package format

import "errors"

var (
	// ErrTruncated indicates the buffer is shorter than the header or the declared total size.
	ErrTruncated = errors.New("fdt: truncated buffer")
	// ErrBadMagic indicates the first word is not the FDT magic.
	ErrBadMagic = errors.New("fdt: bad magic")
	// ErrUnsupportedVersion indicates a structure version other than 17.
	ErrUnsupportedVersion = errors.New("fdt: unsupported version")
	// ErrBadStructure indicates a violation of the token stream or value layout rules.
	ErrBadStructure = errors.New("fdt: bad structure")
	// ErrMissingCells indicates a cell-width or phandle dependency could not be resolved.
	ErrMissingCells = errors.New("fdt: missing cells")
	// ErrUnsupportedCells indicates a cell width wider than MaxCells.
	ErrUnsupportedCells = errors.New("fdt: unsupported cell width")
	// ErrBadValue indicates a recognised property whose bytes do not match its encoding.
	ErrBadValue = errors.New("fdt: bad value")
)
