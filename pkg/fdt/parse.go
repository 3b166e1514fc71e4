package fdt

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/dtbkit/internal/format"
	"github.com/joshuapare/dtbkit/internal/mmfile"
	"github.com/joshuapare/dtbkit/pkg/stream"
)

// Options controls parsing.
type Options struct {
	// Logger receives a Debug record for every property the resolver
	// completes. Nil discards.
	Logger *slog.Logger
}

// Parse decodes blob into a Tree. The returned tree owns copies of every
// name and value, so blob may be reused once Parse returns.
//
// Example:
//
//	tree, err := fdt.Parse(blob)
//	if err != nil {
//	    return err
//	}
//	mem := tree.Lookup("/memory").Reg()
func Parse(blob []byte) (*Tree, error) {
	return ParseWithOptions(blob, Options{})
}

// ParseWithOptions is Parse with explicit options.
func ParseWithOptions(blob []byte, opts Options) (*Tree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tr, err := stream.NewTraverser(blob)
	if err != nil {
		return nil, err
	}
	rsv, err := format.ParseReservations(blob, tr.Header())
	if err != nil {
		return nil, err
	}

	tree := &Tree{Header: tr.Header(), Reservations: rsv}
	b := builder{tr: tr, tree: tree}
	if err := b.build(); err != nil {
		return nil, err
	}
	r := resolver{tree: tree, log: logger}
	if err := r.resolve(); err != nil {
		return nil, err
	}
	logger.Debug("parsed device tree", "nodes", tree.Len(), "bytes", tree.Header.TotalSize)
	return tree, nil
}

// Open maps the blob file at path and parses it.
func Open(path string) (*Tree, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions is Open with explicit options.
func OpenWithOptions(path string, opts Options) (*Tree, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer cleanup()

	tree, err := ParseWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

// PeekTotalSize returns the declared total size from the first eight bytes
// of a blob. Only the magic is checked; call Parse on the full blob.
func PeekTotalSize(b []byte) (uint32, error) {
	return format.PeekTotalSize(b)
}

// ReadBlob reads exactly one blob from r, sizing the read from its header.
// The buffer grows as data arrives, so a header that overstates the size of
// a short stream fails without reserving the declared size up front.
func ReadBlob(r io.Reader) ([]byte, error) {
	head := make([]byte, format.PeekSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read header: %w: %w", ErrTruncated, err)
	}
	size, err := PeekTotalSize(head)
	if err != nil {
		return nil, err
	}
	if size < format.PeekSize {
		return nil, fmt.Errorf("totalsize %d: %w", size, ErrTruncated)
	}

	var blob bytes.Buffer
	blob.Write(head)
	rest := int64(size) - format.PeekSize
	if n, err := io.CopyN(&blob, r, rest); err != nil {
		return nil, fmt.Errorf("read blob: got %d of %d bytes: %w: %w", n+format.PeekSize, size, ErrTruncated, err)
	}
	return blob.Bytes(), nil
}
