/*
Package fdt decodes Flattened Device Tree blobs (DTB) into a typed,
read-only tree of nodes and properties.

# Quick Start

	tree, err := fdt.Open("virt.dtb")
	if err != nil {
	    log.Fatal(err)
	}
	for _, r := range tree.Lookup("/memory@40000000").Reg() {
	    fmt.Println(fdt.Hex(r.Address), fdt.Hex(r.Size))
	}

# Pipeline

Decoding runs in three steps over an in-memory blob:

 1. The header is validated (magic, total size, version 17, block bounds).
 2. A stream.Traverser feeds BeginNode/Prop/EndNode events to a recursive
    builder. Properties whose layout depends only on their own bytes
    (cell counts, status, string lists, integer lists) are decoded here;
    "reg", "ranges", "dma-ranges", "interrupts", "clocks" and
    "assigned-clocks" are held back as raw bytes.
 3. A resolver visits every held-back property once the whole tree exists
    and decodes it using the cell widths and phandle targets it depends on.

Any failure aborts the parse and returns no tree. Errors wrap one of the
package sentinels (ErrTruncated, ErrBadMagic, ErrUnsupportedVersion,
ErrBadStructure, ErrMissingCells, ErrUnsupportedCells, ErrBadValue).

# Cell Widths

"reg" is decoded with the #address-cells/#size-cells in effect for the
node's parent, taken from the parent or its nearest ancestor that sets them.
"ranges" uses the node's own effective widths for the child side and size,
and the parent's #address-cells for the parent side. Fields up to four
cells wide are held as 128-bit integers.

# Interrupts and Clocks

The width of each "interrupts" specifier is the node's own #interrupt-cells,
otherwise that of its interrupt-parent (by phandle) or, lacking one, of its
tree parent, repeated until a value is found. Each "clocks" group is a
provider phandle followed by that provider's #clock-cells cells. Providers
may appear anywhere in the blob, before or after their consumers.

# Streaming

Callers that only need to scan for a handful of properties can use package
stream directly and skip tree construction.
*/
package fdt
