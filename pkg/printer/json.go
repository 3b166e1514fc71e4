package printer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dtbkit/pkg/fdt"
)

// jsonNode represents a node in JSON and YAML output.
type jsonNode struct {
	Name       string         `json:"name"                 yaml:"name"`
	Path       string         `json:"path"                 yaml:"path"`
	Properties []jsonProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []jsonNode     `json:"children,omitempty"   yaml:"children,omitempty"`
}

// jsonProperty represents a property in JSON and YAML output.
type jsonProperty struct {
	Name  string `json:"name"            yaml:"name"`
	Kind  string `json:"kind"            yaml:"kind"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

type jsonRegEntry struct {
	Address string `json:"address" yaml:"address"`
	Size    string `json:"size"    yaml:"size"`
}

type jsonRangeEntry struct {
	ChildAddress  string `json:"child_address"  yaml:"child_address"`
	ParentAddress string `json:"parent_address" yaml:"parent_address"`
	Size          string `json:"size"           yaml:"size"`
}

type jsonClockSpec struct {
	Phandle   uint32   `json:"phandle"             yaml:"phandle"`
	Specifier []uint32 `json:"specifier,omitempty" yaml:"specifier,omitempty"`
}

func (p *Printer) printJSON(n *fdt.Node, levels int) error {
	return p.writeJSON(p.nodeData(n, levels))
}

func (p *Printer) printYAML(n *fdt.Node, levels int) error {
	return p.writeYAML(p.nodeData(n, levels))
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (p *Printer) writeYAML(v any) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(p.opts.IndentSize)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func (p *Printer) nodeData(n *fdt.Node, levels int) jsonNode {
	out := jsonNode{Name: n.Name(), Path: n.Path()}
	for _, prop := range n.Properties() {
		out.Properties = append(out.Properties, p.propertyData(prop))
	}
	if levels != 0 {
		for _, child := range n.Children() {
			out.Children = append(out.Children, p.nodeData(child, levels-1))
		}
	}
	return out
}

func (p *Printer) propertyData(prop fdt.Property) jsonProperty {
	out := jsonProperty{Name: prop.Name, Kind: prop.Value.Kind().String()}
	if p.opts.ShowValues {
		out.Value = valueData(prop.Value, p.opts.MaxValueBytes)
	}
	return out
}

// valueData converts a decoded value into plain data for the encoders.
// 128-bit quantities are emitted as hex strings.
func valueData(v fdt.Value, maxBytes int) any {
	switch v := v.(type) {
	case fdt.U32:
		return uint32(v)
	case fdt.Status:
		return v.String()
	case fdt.String:
		return displayText(string(v))
	case fdt.Strings:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = displayText(s)
		}
		return out
	case fdt.U32List:
		return []uint32(v)
	case fdt.Reg:
		out := make([]jsonRegEntry, len(v))
		for i, e := range v {
			out[i] = jsonRegEntry{Address: fdt.Hex(e.Address), Size: fdt.Hex(e.Size)}
		}
		return out
	case fdt.Ranges:
		out := make([]jsonRangeEntry, len(v))
		for i, e := range v {
			out[i] = jsonRangeEntry{
				ChildAddress:  fdt.Hex(e.ChildAddress),
				ParentAddress: fdt.Hex(e.ParentAddress),
				Size:          fdt.Hex(e.Size),
			}
		}
		return out
	case fdt.Interrupts:
		return [][]uint32(v)
	case fdt.Clocks:
		out := make([]jsonClockSpec, len(v))
		for i, c := range v {
			out[i] = jsonClockSpec{Phandle: c.Phandle, Specifier: c.Specifier}
		}
		return out
	case fdt.Unknown:
		if len(v) == 0 {
			return nil
		}
		if maxBytes > 0 && len(v) > maxBytes {
			return hex.EncodeToString(v[:maxBytes]) + "..."
		}
		return hex.EncodeToString(v)
	default:
		return nil
	}
}
