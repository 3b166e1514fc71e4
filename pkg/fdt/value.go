package fdt

import (
	"fmt"

	"lukechampine.com/uint128"
)

// Kind identifies the decoded shape of a property value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindU32
	KindStatus
	KindString
	KindStrings
	KindU32List
	KindReg
	KindRanges
	KindInterrupts
	KindClocks
	kindDeferred
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindU32:        "u32",
	KindStatus:     "status",
	KindString:     "string",
	KindStrings:    "strings",
	KindU32List:    "u32-list",
	KindReg:        "reg",
	KindRanges:     "ranges",
	KindInterrupts: "interrupts",
	KindClocks:     "clocks",
	kindDeferred:   "deferred",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a decoded property value. The set of implementations is closed;
// switch on the concrete type or on Kind.
type Value interface {
	Kind() Kind
	isValue()
}

// U32 is a single big-endian cell such as #address-cells or phandle.
type U32 uint32

// Status is the decoded "status" property.
type Status uint8

const (
	StatusOkay Status = iota
	StatusDisabled
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOkay:
		return "okay"
	case StatusDisabled:
		return "disabled"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// String is a single NUL-terminated string such as "model".
type String string

// Strings is a packed list of NUL-terminated strings such as "compatible".
type Strings []string

// U32List is a list of big-endian cells such as "pinctrl-0".
type U32List []uint32

// RegEntry is one (address, size) pair of a "reg" property.
type RegEntry struct {
	Address uint128.Uint128
	Size    uint128.Uint128
}

// Reg is a decoded "reg" property.
type Reg []RegEntry

// RangeEntry is one (child, parent, size) triple of a "ranges" property.
type RangeEntry struct {
	ChildAddress  uint128.Uint128
	ParentAddress uint128.Uint128
	Size          uint128.Uint128
}

// Ranges is a decoded "ranges" or "dma-ranges" property. An empty Ranges is
// an identity mapping.
type Ranges []RangeEntry

// Interrupts holds one specifier per interrupt, each #interrupt-cells wide.
type Interrupts [][]uint32

// ClockSpec is one clock reference: the provider phandle followed by
// #clock-cells specifier cells.
type ClockSpec struct {
	Phandle   uint32
	Specifier []uint32
}

// Clocks is a decoded "clocks" or "assigned-clocks" property.
type Clocks []ClockSpec

// Unknown is the raw value of a property with an unrecognised name.
type Unknown []byte

// deferred holds the raw bytes of a property that can only be decoded once
// the whole tree exists. It never survives a successful Parse.
type deferred struct {
	raw []byte
}

func (U32) Kind() Kind        { return KindU32 }
func (Status) Kind() Kind     { return KindStatus }
func (String) Kind() Kind     { return KindString }
func (Strings) Kind() Kind    { return KindStrings }
func (U32List) Kind() Kind    { return KindU32List }
func (Reg) Kind() Kind        { return KindReg }
func (Ranges) Kind() Kind     { return KindRanges }
func (Interrupts) Kind() Kind { return KindInterrupts }
func (Clocks) Kind() Kind     { return KindClocks }
func (Unknown) Kind() Kind    { return KindUnknown }
func (deferred) Kind() Kind   { return kindDeferred }

func (U32) isValue()        {}
func (Status) isValue()     {}
func (String) isValue()     {}
func (Strings) isValue()    {}
func (U32List) isValue()    {}
func (Reg) isValue()        {}
func (Ranges) isValue()     {}
func (Interrupts) isValue() {}
func (Clocks) isValue()     {}
func (Unknown) isValue()    {}
func (deferred) isValue()   {}

// Hex formats v as 0x-prefixed lowercase hex without leading zeros.
func Hex(v uint128.Uint128) string {
	if v.Hi == 0 {
		return fmt.Sprintf("%#x", v.Lo)
	}
	return fmt.Sprintf("%#x%016x", v.Hi, v.Lo)
}
