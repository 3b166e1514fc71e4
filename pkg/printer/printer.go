// Package printer renders decoded device trees as text, JSON or YAML.
package printer

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/joshuapare/dtbkit/pkg/fdt"
)

const (
	DefaultIndentSize    = 2
	DefaultMaxDepth      = 0
	DefaultMaxValueBytes = 64
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs a dts-like human-readable format.
	FormatText Format = "text"

	// FormatJSON outputs JSON format.
	FormatJSON Format = "json"

	// FormatYAML outputs YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (must be text, json, or yaml)", s)
	}
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json, yaml).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth below the starting node (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowValues includes property values in output.
	// Default: true
	ShowValues bool

	// ShowValueKinds appends the decoded kind of each property (text format only).
	// Default: false
	ShowValueKinds bool

	// MaxValueBytes limits how many bytes of unrecognised values to display,
	// string lists guessed from those bytes included. Set to 0 for no limit.
	// Default: 64
	MaxValueBytes int

	// Color enables ANSI colors (text format only).
	// Default: false
	Color bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:         FormatText,
		IndentSize:     DefaultIndentSize,
		MaxDepth:       DefaultMaxDepth,
		ShowValues:     true,
		ShowValueKinds: false,
		MaxValueBytes:  DefaultMaxValueBytes,
		Color:          false,
	}
}

// Printer handles formatted output of device tree nodes.
type Printer struct {
	opts   Options
	writer io.Writer

	nodeColor  *color.Color
	propColor  *color.Color
	valueColor *color.Color
}

// New creates a new Printer writing to w.
//
// Example:
//
//	tree, _ := fdt.Open("virt.dtb")
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintTree(tree.Root())
func New(w io.Writer, opts Options) *Printer {
	p := &Printer{
		opts:       opts,
		writer:     w,
		nodeColor:  color.New(color.FgBlue, color.Bold),
		propColor:  color.New(color.FgCyan),
		valueColor: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.nodeColor, p.propColor, p.valueColor} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// PrintNode prints a node and its properties without descending into children.
func (p *Printer) PrintNode(n *fdt.Node) error {
	return p.print(n, 1)
}

// PrintTree prints n and its descendants, honoring MaxDepth.
//
// Example:
//
//	opts := printer.DefaultOptions()
//	opts.MaxDepth = 2
//	printer.New(os.Stdout, opts).PrintTree(tree.Lookup("/cpus"))
func (p *Printer) PrintTree(n *fdt.Node) error {
	depth := p.opts.MaxDepth
	if depth <= 0 {
		depth = -1
	}
	return p.print(n, depth)
}

// print renders n; levels is how many levels of children to include,
// negative for all of them.
func (p *Printer) print(n *fdt.Node, levels int) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(n, levels)
	case FormatYAML:
		return p.printYAML(n, levels)
	default:
		return p.printText(n, 0, levels)
	}
}

// PrintProperty prints a single property of n.
func (p *Printer) PrintProperty(n *fdt.Node, name string) error {
	v := n.Property(name)
	if v == nil {
		return fmt.Errorf("property %q not found on %s", name, n.Path())
	}
	prop := fdt.Property{Name: name, Value: v}

	switch p.opts.Format {
	case FormatJSON:
		return p.writeJSON(p.propertyData(prop))
	case FormatYAML:
		return p.writeYAML(p.propertyData(prop))
	default:
		return p.printPropertyText(prop, 0)
	}
}
