package fdt

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/dtbkit/internal/buf"
)

type decoder func(raw []byte) (Value, error)

// decoders maps recognised property names to their first-pass decoder.
// Names absent from the table decode to Unknown.
var decoders = map[string]decoder{
	"#address-cells":   decodeU32,
	"#size-cells":      decodeU32,
	"#interrupt-cells": decodeU32,
	"#clock-cells":     decodeU32,
	"reg-shift":        decodeU32,
	"phandle":          decodeU32,
	"interrupt-parent": decodeU32,

	"status": decodeStatus,

	"compatible":         decodeStrings,
	"clock-names":        decodeStrings,
	"clock-output-names": decodeStrings,
	"interrupt-names":    decodeStrings,
	"pinctrl-names":      decodeStrings,

	"model":       decodeString,
	"device_type": decodeString,
	"bootargs":    decodeString,
	"stdout-path": decodeString,

	"pinctrl-0":            decodeU32List,
	"pinctrl-1":            decodeU32List,
	"pinctrl-2":            decodeU32List,
	"assigned-clock-rates": decodeU32List,

	"reg":             decodeDeferred,
	"ranges":          decodeDeferred,
	"dma-ranges":      decodeDeferred,
	"interrupts":      decodeDeferred,
	"clocks":          decodeDeferred,
	"assigned-clocks": decodeDeferred,
}

// decodeProperty classifies a property by name and decodes what can be
// decoded without looking at the rest of the tree. The result never aliases
// raw.
func decodeProperty(name string, raw []byte) (Value, error) {
	d, ok := decoders[name]
	if !ok {
		return Unknown(bytes.Clone(raw)), nil
	}
	return d(raw)
}

func decodeU32(raw []byte) (Value, error) {
	if len(raw) != buf.CellSize {
		return nil, fmt.Errorf("%d bytes, want %d: %w", len(raw), buf.CellSize, ErrBadStructure)
	}
	return U32(buf.U32BE(raw)), nil
}

func decodeU32List(raw []byte) (Value, error) {
	if len(raw)%buf.CellSize != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of cells: %w", len(raw), ErrBadStructure)
	}
	return U32List(buf.Words(raw)), nil
}

func decodeStatus(raw []byte) (Value, error) {
	switch string(bytes.TrimSuffix(raw, []byte{0})) {
	case "okay":
		return StatusOkay, nil
	case "disabled":
		return StatusDisabled, nil
	case "fail":
		return StatusFail, nil
	default:
		return nil, fmt.Errorf("status %q: %w", raw, ErrBadValue)
	}
}

func decodeString(raw []byte) (Value, error) {
	n := bytes.IndexByte(raw, 0)
	if len(raw) == 0 || n != len(raw)-1 {
		return nil, fmt.Errorf("%q is not a single NUL-terminated string: %w", raw, ErrBadValue)
	}
	return String(raw[:n]), nil
}

// decodeStrings splits on NUL. A final terminator does not produce an empty
// trailing string, and an unterminated tail is kept as the last string.
func decodeStrings(raw []byte) (Value, error) {
	n := bytes.Count(raw, []byte{0})
	if len(raw) > 0 && raw[len(raw)-1] != 0 {
		n++
	}
	out := make(Strings, 0, n)
	for len(raw) > 0 {
		i := bytes.IndexByte(raw, 0)
		if i < 0 {
			out = append(out, string(raw))
			break
		}
		out = append(out, string(raw[:i]))
		raw = raw[i+1:]
	}
	return out, nil
}

func decodeDeferred(raw []byte) (Value, error) {
	return deferred{raw: bytes.Clone(raw)}, nil
}
