package fdt

import (
	"strings"

	"github.com/joshuapare/dtbkit/internal/format"
)

// Header is the validated blob header.
type Header = format.Header

// Reservation is one memory reservation map entry.
type Reservation = format.Reservation

// PathSeparator separates node names in a path.
const PathSeparator = "/"

const noParent = -1

// Tree is a fully decoded device tree. Nodes live in one slice in document
// order; parent and child links are indices into it, so a Tree owns every
// node exactly once. A Tree returned by Parse is never mutated again and may
// be read from multiple goroutines.
type Tree struct {
	Header       Header
	Reservations []Reservation

	nodes []Node
}

// Property is a named, decoded value in blob order.
type Property struct {
	Name  string
	Value Value
}

// Node is one device tree node.
type Node struct {
	tree     *Tree
	id       int
	parent   int
	name     string
	props    []Property
	children []int
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk calls fn for every node in document order. It stops at the first
// error and returns it.
func (t *Tree) Walk(fn func(*Node) error) error {
	for i := range t.nodes {
		if err := fn(&t.nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// FindByPhandle returns the first node, in document order, whose phandle
// property equals h.
func (t *Tree) FindByPhandle(h uint32) *Node {
	if id := t.phandleNode(h); id != noParent {
		return &t.nodes[id]
	}
	return nil
}

// phandleNode is a linear preorder search; trees are small and lookups happen
// during a single resolution pass.
func (t *Tree) phandleNode(h uint32) int {
	for i := range t.nodes {
		if v, ok := t.nodes[i].U32("phandle"); ok && v == h {
			return i
		}
	}
	return noParent
}

// Lookup resolves an absolute path such as "/cpus/cpu@0".
func (t *Tree) Lookup(path string) *Node {
	return t.Root().NodeAtPath(path)
}

// Name returns the full node name including any unit address.
func (n *Node) Name() string { return n.name }

// UnitName returns the name without its "@unit-address" suffix.
func (n *Node) UnitName() string {
	name, _, _ := strings.Cut(n.name, "@")
	return name
}

// UnitAddress returns the text after '@', or "" when there is none.
func (n *Node) UnitAddress() string {
	_, addr, _ := strings.Cut(n.name, "@")
	return addr
}

// Tree returns the tree that owns n.
func (n *Node) Tree() *Tree { return n.tree }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	if n.parent == noParent {
		return nil
	}
	return &n.tree.nodes[n.parent]
}

// Children returns the child nodes in document order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	for i, id := range n.children {
		out[i] = &n.tree.nodes[id]
	}
	return out
}

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.children) }

// Properties returns the properties in blob order. The slice must not be modified.
func (n *Node) Properties() []Property { return n.props }

// Depth returns 0 for the root, 1 for its children, and so on.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != noParent; p = n.tree.nodes[p].parent {
		d++
	}
	return d
}

// Path returns the absolute path of n.
func (n *Node) Path() string {
	if n.parent == noParent {
		return PathSeparator
	}
	var segs []string
	for id := n.id; id != noParent; id = n.tree.nodes[id].parent {
		if n.tree.nodes[id].parent != noParent {
			segs = append(segs, n.tree.nodes[id].name)
		}
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteString(PathSeparator)
		b.WriteString(segs[i])
	}
	return b.String()
}

// Child returns the first child named name. A name without '@' also
// matches a child whose name before '@' equals it.
func (n *Node) Child(name string) *Node {
	for _, id := range n.children {
		if n.tree.nodes[id].name == name {
			return &n.tree.nodes[id]
		}
	}
	if strings.Contains(name, "@") {
		return nil
	}
	for _, id := range n.children {
		if n.tree.nodes[id].UnitName() == name {
			return &n.tree.nodes[id]
		}
	}
	return nil
}

// NodeAtPath follows path from n one Child lookup per segment. A leading
// separator starts at the root instead.
func (n *Node) NodeAtPath(path string) *Node {
	cur := n
	if strings.HasPrefix(path, PathSeparator) {
		cur = n.tree.Root()
	}
	for _, seg := range strings.Split(path, PathSeparator) {
		if seg == "" {
			continue
		}
		if cur = cur.Child(seg); cur == nil {
			return nil
		}
	}
	return cur
}

// Property returns the value of the named property, or nil.
func (n *Node) Property(name string) Value {
	for i := range n.props {
		if n.props[i].Name == name {
			return n.props[i].Value
		}
	}
	return nil
}

// PropertyAtPath returns the named property of the node at path relative to
// n, or nil when either is missing.
func (n *Node) PropertyAtPath(path, name string) Value {
	target := n.NodeAtPath(path)
	if target == nil {
		return nil
	}
	return target.Property(name)
}

// U32 returns a single-cell property.
func (n *Node) U32(name string) (uint32, bool) {
	v, ok := n.Property(name).(U32)
	return uint32(v), ok
}

// Phandle returns the node's phandle.
func (n *Node) Phandle() (uint32, bool) {
	return n.U32("phandle")
}

// Compatible returns the compatible list, or nil.
func (n *Node) Compatible() []string {
	v, _ := n.Property("compatible").(Strings)
	return v
}

// IsCompatible reports whether compat appears in the compatible list.
func (n *Node) IsCompatible(compat string) bool {
	for _, c := range n.Compatible() {
		if c == compat {
			return true
		}
	}
	return false
}

// Status returns the node status. A node without one is okay.
func (n *Node) Status() Status {
	if v, ok := n.Property("status").(Status); ok {
		return v
	}
	return StatusOkay
}

// Reg returns the resolved reg property, or nil.
func (n *Node) Reg() Reg {
	v, _ := n.Property("reg").(Reg)
	return v
}

// Interrupts returns the resolved interrupts property, or nil.
func (n *Node) Interrupts() Interrupts {
	v, _ := n.Property("interrupts").(Interrupts)
	return v
}

// Clocks returns the resolved clocks property, or nil.
func (n *Node) Clocks() Clocks {
	v, _ := n.Property("clocks").(Clocks)
	return v
}
