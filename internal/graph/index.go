package graph

// Index provides constant-time lookups over a node/connection set. It is built
// once per compile and shared read-only by every pass.
type Index struct {
	nodes    map[string]*Node
	order    []*Node
	from     map[PortRef][]Connection
	to       map[PortRef][]Connection
	dangling []Connection
}

// NewIndex builds the lookup tables. Connections whose endpoints reference a
// missing node or port are left out of the tables and reported by Dangling.
func NewIndex(nodes []Node, conns []Connection) *Index {
	idx := &Index{
		nodes: make(map[string]*Node, len(nodes)),
		order: make([]*Node, 0, len(nodes)),
		from:  make(map[PortRef][]Connection),
		to:    make(map[PortRef][]Connection),
	}

	for i := range nodes {
		n := &nodes[i]
		if _, exists := idx.nodes[n.ID]; exists {
			// first declaration wins
			continue
		}
		idx.nodes[n.ID] = n
		idx.order = append(idx.order, n)
	}

	for _, c := range conns {
		if !idx.hasOutput(c.From) || !idx.hasInput(c.To) {
			idx.dangling = append(idx.dangling, c)
			continue
		}
		idx.from[c.From] = append(idx.from[c.From], c)
		idx.to[c.To] = append(idx.to[c.To], c)
	}

	return idx
}

func (slf *Index) hasOutput(ref PortRef) bool {
	n, ok := slf.nodes[ref.NodeID]
	if !ok {
		return false
	}
	_, ok = n.Output(ref.PortID)
	return ok
}

func (slf *Index) hasInput(ref PortRef) bool {
	n, ok := slf.nodes[ref.NodeID]
	if !ok {
		return false
	}
	_, ok = n.Input(ref.PortID)
	return ok
}

// Node returns the node with the given id, or nil.
func (slf *Index) Node(id string) *Node {
	return slf.nodes[id]
}

// Nodes returns every node in declaration order.
func (slf *Index) Nodes() []*Node {
	return slf.order
}

// Len returns the number of distinct nodes.
func (slf *Index) Len() int {
	return len(slf.order)
}

// From returns the connections leaving the given output port, in the order
// they appear in the connection array.
func (slf *Index) From(nodeID, portID string) []Connection {
	return slf.from[PortRef{NodeID: nodeID, PortID: portID}]
}

// To returns the connections arriving at the given input port.
func (slf *Index) To(nodeID, portID string) []Connection {
	return slf.to[PortRef{NodeID: nodeID, PortID: portID}]
}

// Dangling returns connections that were dropped because an endpoint is missing.
func (slf *Index) Dangling() []Connection {
	return slf.dangling
}
