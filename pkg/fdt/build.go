package fdt

import (
	"fmt"

	"github.com/joshuapare/dtbkit/pkg/stream"
)

// builder materialises the tree from a Traverser. Nodes are appended to the
// arena in document order and referenced by index until the walk ends, so
// growing the arena never invalidates a link.
type builder struct {
	tr   *stream.Traverser
	tree *Tree
}

func (b *builder) build() error {
	ev, err := b.tr.Next()
	if err != nil {
		return err
	}
	if ev.Kind != stream.EventBeginNode {
		return fmt.Errorf("structure block at %#x: first event is %s, want BeginNode: %w",
			ev.Offset, ev.Kind, ErrBadStructure)
	}
	if _, err := b.node(ev.Name, noParent); err != nil {
		return err
	}

	ev, err = b.tr.Next()
	if err != nil {
		return err
	}
	if ev.Kind != stream.EventEnd {
		return fmt.Errorf("structure block at %#x: %s after root node: %w", ev.Offset, ev.Kind, ErrBadStructure)
	}
	return nil
}

// node consumes events up to and including the EndNode matching the
// BeginNode that named it.
func (b *builder) node(name []byte, parent int) (int, error) {
	id := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, Node{
		tree:   b.tree,
		id:     id,
		parent: parent,
		name:   string(name),
	})

	var (
		props    []Property
		children []int
	)
	for {
		ev, err := b.tr.Next()
		if err != nil {
			return 0, err
		}
		switch ev.Kind {
		case stream.EventBeginNode:
			child, err := b.node(ev.Name, id)
			if err != nil {
				return 0, err
			}
			children = append(children, child)

		case stream.EventProp:
			v, err := decodeProperty(string(ev.Name), ev.Value)
			if err != nil {
				return 0, fmt.Errorf("node %q: property %q at %#x: %w", b.tree.nodes[id].name, ev.Name, ev.Offset, err)
			}
			props = append(props, Property{Name: string(ev.Name), Value: v})

		case stream.EventEndNode:
			n := &b.tree.nodes[id]
			n.props = props
			n.children = children
			return id, nil

		default:
			return 0, fmt.Errorf("structure block at %#x: %s inside node %q: %w",
				ev.Offset, ev.Kind, b.tree.nodes[id].name, ErrBadStructure)
		}
	}
}
