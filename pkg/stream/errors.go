package stream

import "github.com/joshuapare/dtbkit/internal/format"

// Errors returned by NewTraverser and Traverser.Next. Match with errors.Is.
var (
	ErrTruncated          = format.ErrTruncated
	ErrBadMagic           = format.ErrBadMagic
	ErrUnsupportedVersion = format.ErrUnsupportedVersion
	ErrBadStructure       = format.ErrBadStructure
)
