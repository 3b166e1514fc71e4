package fdt

import "github.com/joshuapare/dtbkit/internal/format"

// Errors returned by Parse. Every error aborts the parse; match with errors.Is.
var (
	ErrTruncated          = format.ErrTruncated
	ErrBadMagic           = format.ErrBadMagic
	ErrUnsupportedVersion = format.ErrUnsupportedVersion
	ErrBadStructure       = format.ErrBadStructure
	ErrMissingCells       = format.ErrMissingCells
	ErrUnsupportedCells   = format.ErrUnsupportedCells
	ErrBadValue           = format.ErrBadValue
)
