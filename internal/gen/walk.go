package gen

import (
	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

// Walk emits the statement form of a node unless it was already emitted in
// this pass.
func (pc *PassContext) Walk(nodeID string) ([]ir.Stmt, error) {
	if pc.visited[nodeID] {
		return nil, nil
	}
	node := pc.index.Node(nodeID)
	if node == nil {
		return nil, nil
	}
	pc.visited[nodeID] = true
	return pc.emitNode(node)
}

// WalkPort walks every connection leaving an exec output, in connection order.
func (pc *PassContext) WalkPort(node *graph.Node, portID string) ([]ir.Stmt, error) {
	var out []ir.Stmt
	for _, c := range pc.index.From(node.ID, portID) {
		stmts, err := pc.Walk(c.To.NodeID)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// WalkBody walks an exec output into a nested block. bind, when set, runs
// inside the block before the walk so values it binds are scoped to it.
func (pc *PassContext) WalkBody(node *graph.Node, portID string, bind ...func()) ([]ir.Stmt, error) {
	pc.enterBlock()
	defer pc.exitBlock()
	for _, b := range bind {
		b()
	}
	return pc.WalkPort(node, portID)
}

// Next continues control flow through the node's primary exec output.
func (pc *PassContext) Next(node *graph.Node) ([]ir.Stmt, error) {
	port, ok := primaryExec(node)
	if !ok {
		return nil, nil
	}
	return pc.WalkPort(node, port.ID)
}

// WalkNamed continues through the exec output matching one of names, if any.
func (pc *PassContext) WalkNamed(node *graph.Node, names ...string) ([]ir.Stmt, error) {
	port, ok := node.FindOutput(graph.PortKindExec, names...)
	if !ok {
		return nil, nil
	}
	return pc.WalkPort(node, port.ID)
}

// HasConnection reports whether an output port has at least one connection.
func (pc *PassContext) HasConnection(node *graph.Node, portID string) bool {
	return len(pc.index.From(node.ID, portID)) > 0
}

// emitNode runs the node's rule. Statements spliced in by on-demand
// resolution of the node's inputs come first.
func (pc *PassContext) emitNode(node *graph.Node) ([]ir.Stmt, error) {
	rule, ok := pc.registry.Lookup(node)
	if !ok {
		rule = unknownRule
	}

	outer := pc.prelude
	pc.prelude = nil
	pc.logger.Debug().Str("node", node.ID).Str("type", node.Type).Int("depth", pc.depth).Msg("emitting node")

	res, err := rule(pc, node)

	spliced := pc.prelude
	pc.prelude = outer
	if err != nil {
		return nil, err
	}
	if len(spliced) == 0 {
		return res.Stmts, nil
	}
	return append(spliced, res.Stmts...), nil
}

func primaryExec(node *graph.Node) (graph.Port, bool) {
	if port, ok := node.FindOutput(graph.PortKindExec, "next", "exec", "out", "then"); ok {
		return port, true
	}
	execs := node.ExecOutputs()
	if len(execs) == 0 {
		return graph.Port{}, false
	}
	return execs[0], true
}
