package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/dtbkit/pkg/fdt"
)

// printText writes n in dts-like syntax at the given indent level.
func (p *Printer) printText(n *fdt.Node, indent, levels int) error {
	name := n.Name()
	if n.Parent() == nil {
		name = fdt.PathSeparator
	}
	if _, err := fmt.Fprintf(p.writer, "%s%s {\n", p.indent(indent), p.nodeColor.Sprint(name)); err != nil {
		return err
	}

	for _, prop := range n.Properties() {
		if err := p.printPropertyText(prop, indent+1); err != nil {
			return err
		}
	}

	if levels != 0 {
		for _, child := range n.Children() {
			if err := p.printText(child, indent+1, levels-1); err != nil {
				return err
			}
		}
	} else if n.NumChildren() > 0 {
		if _, err := fmt.Fprintf(p.writer, "%s/* %d child nodes */\n", p.indent(indent+1), n.NumChildren()); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(p.writer, "%s};\n", p.indent(indent))
	return err
}

func (p *Printer) printPropertyText(prop fdt.Property, indent int) error {
	var sb strings.Builder
	sb.WriteString(p.indent(indent))
	sb.WriteString(p.propColor.Sprint(prop.Name))

	if p.opts.ShowValues {
		if v := FormatValue(prop.Value, p.opts.MaxValueBytes); v != "" {
			sb.WriteString(" = ")
			sb.WriteString(p.valueColor.Sprint(v))
		}
	}
	sb.WriteString(";")

	if p.opts.ShowValueKinds {
		sb.WriteString(" [")
		sb.WriteString(prop.Value.Kind().String())
		sb.WriteString("]")
	}
	sb.WriteString("\n")

	_, err := fmt.Fprint(p.writer, sb.String())
	return err
}

func (p *Printer) indent(level int) string {
	return strings.Repeat(" ", level*p.opts.IndentSize)
}
