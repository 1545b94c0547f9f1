package resolve

import "github.com/graphmesh/graphmesh/internal/value"

type nodeKind int

const (
	nodeLeaf nodeKind = iota
	nodeObject
	nodeList
)

// node is a mutable response slot. Fetch completions land in nodes between
// dispatch rounds; materialize turns the finished tree into a response value
// preserving selection order.
type node struct {
	kind   nodeKind
	leaf   value.Value
	names  []string
	fields []*node
	items  []*node
}

func (n *node) setLeaf(v value.Value) {
	n.kind = nodeLeaf
	n.leaf = v
}

// object resets n to an object node with one child slot per name, in order.
func (n *node) object(names []string) []*node {
	n.kind = nodeObject
	n.names = names
	n.fields = make([]*node, len(names))
	for i := range n.fields {
		n.fields[i] = &node{}
	}
	return n.fields
}

// list resets n to a list node with size child slots.
func (n *node) list(size int) []*node {
	n.kind = nodeList
	n.items = make([]*node, size)
	for i := range n.items {
		n.items[i] = &node{}
	}
	return n.items
}

func (n *node) materialize() value.Value {
	switch n.kind {
	case nodeObject:
		fields := make([]value.ObjectField, len(n.fields))
		for i, child := range n.fields {
			fields[i] = value.ObjectField{Name: n.names[i], Value: child.materialize()}
		}
		return value.Object(fields...)
	case nodeList:
		items := make([]value.Value, len(n.items))
		for i, child := range n.items {
			items[i] = child.materialize()
		}
		return value.List(items...)
	default:
		return n.leaf
	}
}
