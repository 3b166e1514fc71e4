package fdt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshuapare/dtbkit/internal/buf"
	"github.com/joshuapare/dtbkit/internal/format"
)

// resolver replaces every deferred value once the whole tree exists. Cell
// widths are read from the final tree shape, never carried along the build.
type resolver struct {
	tree *Tree
	log  *slog.Logger
}

func (r *resolver) resolve() error {
	debug := r.log.Enabled(context.Background(), slog.LevelDebug)
	for id := range r.tree.nodes {
		n := &r.tree.nodes[id]
		for i := range n.props {
			p := &n.props[i]
			d, ok := p.Value.(deferred)
			if !ok {
				continue
			}
			v, err := r.resolveProperty(id, p.Name, d.raw)
			if err != nil {
				return fmt.Errorf("node %s: property %q: %w", n.Path(), p.Name, err)
			}
			p.Value = v
			if debug {
				r.log.Debug("resolved property", "node", n.Path(), "property", p.Name, "kind", v.Kind())
			}
		}
	}
	return nil
}

func (r *resolver) resolveProperty(id int, name string, raw []byte) (Value, error) {
	switch name {
	case "reg":
		return r.reg(id, raw)
	case "ranges", "dma-ranges":
		return r.ranges(id, raw)
	case "interrupts":
		return r.interrupts(id, raw)
	case "clocks", "assigned-clocks":
		return r.clocks(raw)
	default:
		return nil, fmt.Errorf("no resolver for deferred property: %w", ErrBadStructure)
	}
}

// cells returns the value of prop on id or its nearest ancestor that has it.
func (r *resolver) cells(id int, prop string) (int, error) {
	for cur := id; cur != noParent; cur = r.tree.nodes[cur].parent {
		if v, ok := r.tree.nodes[cur].U32(prop); ok {
			if v > format.MaxCells {
				return 0, fmt.Errorf("%s = %d on %s, max %d: %w",
					prop, v, r.tree.nodes[cur].Path(), format.MaxCells, ErrUnsupportedCells)
			}
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("no %s on %s or any ancestor: %w", prop, r.tree.nodes[id].Path(), ErrMissingCells)
}

func (r *resolver) parentOf(id int) (int, error) {
	p := r.tree.nodes[id].parent
	if p == noParent {
		return 0, fmt.Errorf("root node has no parent to take cell widths from: %w", ErrMissingCells)
	}
	return p, nil
}

// reg is laid out in the parent's address space.
func (r *resolver) reg(id int, raw []byte) (Value, error) {
	parent, err := r.parentOf(id)
	if err != nil {
		return nil, err
	}
	ac, err := r.cells(parent, "#address-cells")
	if err != nil {
		return nil, err
	}
	sc, err := r.cells(parent, "#size-cells")
	if err != nil {
		return nil, err
	}

	n, err := groups(raw, ac+sc)
	if err != nil {
		return nil, err
	}
	out := make(Reg, n)
	stride := (ac + sc) * buf.CellSize
	for i := range out {
		entry := raw[i*stride:]
		out[i] = RegEntry{
			Address: buf.Cells(entry, ac),
			Size:    buf.Cells(entry[ac*buf.CellSize:], sc),
		}
	}
	return out, nil
}

// ranges maps the node's own address space (child side, own cells) onto its
// parent's (parent side, parent's #address-cells).
func (r *resolver) ranges(id int, raw []byte) (Value, error) {
	parent, err := r.parentOf(id)
	if err != nil {
		return nil, err
	}
	cac, err := r.cells(id, "#address-cells")
	if err != nil {
		return nil, err
	}
	sc, err := r.cells(id, "#size-cells")
	if err != nil {
		return nil, err
	}
	pac, err := r.cells(parent, "#address-cells")
	if err != nil {
		return nil, err
	}

	width := cac + pac + sc
	n, err := groups(raw, width)
	if err != nil {
		return nil, err
	}
	out := make(Ranges, n)
	stride := width * buf.CellSize
	for i := range out {
		entry := raw[i*stride:]
		out[i] = RangeEntry{
			ChildAddress:  buf.Cells(entry, cac),
			ParentAddress: buf.Cells(entry[cac*buf.CellSize:], pac),
			Size:          buf.Cells(entry[(cac+pac)*buf.CellSize:], sc),
		}
	}
	return out, nil
}

func (r *resolver) interrupts(id int, raw []byte) (Value, error) {
	width, err := r.interruptCells(id)
	if err != nil {
		return nil, err
	}
	n, err := groups(raw, width)
	if err != nil {
		return nil, err
	}
	words := buf.Words(raw)
	out := make(Interrupts, n)
	for i := range out {
		out[i] = words[i*width : (i+1)*width : (i+1)*width]
	}
	return out, nil
}

// interruptCells follows own #interrupt-cells, then the interrupt-parent
// phandle, then the tree parent. The chain may leave the ancestor line, so a
// revisited node means a cycle.
func (r *resolver) interruptCells(id int) (int, error) {
	seen := map[int]bool{}
	for cur := id; ; {
		n := &r.tree.nodes[cur]
		if v, ok := n.U32("#interrupt-cells"); ok {
			return int(v), nil
		}
		seen[cur] = true

		next := n.parent
		if ph, ok := n.U32("interrupt-parent"); ok {
			next = r.tree.phandleNode(ph)
			if next == noParent {
				return 0, fmt.Errorf("interrupt-parent %#x on %s not found: %w", ph, n.Path(), ErrMissingCells)
			}
		}
		if next == noParent {
			return 0, fmt.Errorf("no #interrupt-cells reachable from %s: %w", r.tree.nodes[id].Path(), ErrMissingCells)
		}
		if seen[next] {
			return 0, fmt.Errorf("interrupt-parent cycle through %s: %w", r.tree.nodes[next].Path(), ErrMissingCells)
		}
		cur = next
	}
}

// clocks walks (phandle, specifier...) groups left to right; each group's
// length comes from the provider's own #clock-cells.
func (r *resolver) clocks(raw []byte) (Value, error) {
	if len(raw)%buf.CellSize != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of cells: %w", len(raw), ErrBadStructure)
	}
	words := buf.Words(raw)
	var out Clocks
	for i := 0; i < len(words); {
		ph := words[i]
		provider := r.tree.phandleNode(ph)
		if provider == noParent {
			return nil, fmt.Errorf("clock provider %#x not found: %w", ph, ErrMissingCells)
		}
		cc, ok := r.tree.nodes[provider].U32("#clock-cells")
		if !ok {
			return nil, fmt.Errorf("clock provider %s has no #clock-cells: %w",
				r.tree.nodes[provider].Path(), ErrMissingCells)
		}
		end := i + 1 + int(cc)
		if cc > uint32(len(words)) || end > len(words) {
			return nil, fmt.Errorf("clock specifier for %#x needs %d cells, %d left: %w",
				ph, cc, len(words)-i-1, ErrBadStructure)
		}
		out = append(out, ClockSpec{Phandle: ph, Specifier: words[i+1 : end : end]})
		i = end
	}
	return out, nil
}

// groups returns how many width-cell groups raw holds.
func groups(raw []byte, width int) (int, error) {
	if width == 0 {
		if len(raw) != 0 {
			return 0, fmt.Errorf("%d bytes with zero-cell groups: %w", len(raw), ErrBadStructure)
		}
		return 0, nil
	}
	stride := width * buf.CellSize
	if len(raw)%stride != 0 {
		return 0, fmt.Errorf("%d bytes is not a multiple of %d-cell groups: %w", len(raw), width, ErrBadStructure)
	}
	return len(raw) / stride, nil
}
