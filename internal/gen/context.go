package gen

import (
	"fmt"
	"slices"

	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"

	"github.com/rs/zerolog"
)

// Hoisted is a thread body that will be emitted as its own function once the
// primary body of the pass is done.
type Hoisted struct {
	Name     string
	NodeID   string
	BodyPort string
}

// binding is an expression bound to a node output, visible in the block it
// was bound in and the blocks nested inside it.
type binding struct {
	value ir.Expr
	scope []int
}

// PassContext holds the state of one compilation pass. A fresh context is
// created for every root; nothing in it outlives the pass.
type PassContext struct {
	index    *graph.Index
	registry *Registry
	logger   zerolog.Logger

	root     *graph.Node
	rootFunc string

	visited   map[string]bool
	resolving map[string]bool
	variables map[string][]binding

	counter  int
	depth    int
	scopes   []int
	scopeSeq int
	hoisted  []Hoisted

	// statements produced by on-demand resolution for the node being emitted
	prelude []ir.Stmt

	diagnostics []Diagnostic
}

func newPassContext(index *graph.Index, registry *Registry, logger zerolog.Logger, root *graph.Node, rootFunc string) *PassContext {
	return &PassContext{
		index:     index,
		registry:  registry,
		logger:    logger.With().Str("root", rootFunc).Logger(),
		root:      root,
		rootFunc:  rootFunc,
		visited:   make(map[string]bool),
		resolving: make(map[string]bool),
		variables: make(map[string][]binding),
		scopes:    []int{0},
	}
}

// Index returns the graph index shared by every pass
func (pc *PassContext) Index() *graph.Index {
	return pc.index
}

// RootFunc returns the name of the function generated for the pass root
func (pc *PassContext) RootFunc() string {
	return pc.rootFunc
}

// Depth returns the current block nesting relative to the enclosing function
func (pc *PassContext) Depth() int {
	return pc.depth
}

// Visited reports whether the node's statement form was already emitted
func (pc *PassContext) Visited(nodeID string) bool {
	return pc.visited[nodeID]
}

// NewName allocates a pass-unique identifier with the given prefix.
func (pc *PassContext) NewName(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, pc.counter)
	pc.counter++
	return name
}

// SetVar records the expression produced on a node output in the current
// block. An output already visible from here is not rebound.
func (pc *PassContext) SetVar(nodeID, portID string, value ir.Expr) {
	key := graph.PortRef{NodeID: nodeID, PortID: portID}.String()
	if _, ok := pc.Var(nodeID, portID); ok {
		pc.logger.Debug().Str("key", key).Msg("variable already bound, ignoring")
		return
	}
	pc.variables[key] = append(pc.variables[key], binding{value: value, scope: slices.Clone(pc.scopes)})
}

// Var returns the expression bound to a node output, if it is visible from
// the current block.
func (pc *PassContext) Var(nodeID, portID string) (ir.Expr, bool) {
	bindings := pc.variables[graph.PortRef{NodeID: nodeID, PortID: portID}.String()]
	for i := len(bindings) - 1; i >= 0; i-- {
		if pc.sees(bindings[i].scope) {
			return bindings[i].value, true
		}
	}
	return nil, false
}

// boundElsewhere reports whether a node output has a binding that is not
// visible from the current block.
func (pc *PassContext) boundElsewhere(nodeID, portID string) bool {
	return len(pc.variables[graph.PortRef{NodeID: nodeID, PortID: portID}.String()]) > 0
}

func (pc *PassContext) sees(scope []int) bool {
	return len(scope) <= len(pc.scopes) && slices.Equal(scope, pc.scopes[:len(scope)])
}

// enterBlock opens a nested block. Bindings made inside it are dropped from
// view when it is closed.
func (pc *PassContext) enterBlock() {
	pc.scopeSeq++
	pc.scopes = append(pc.scopes, pc.scopeSeq)
	pc.depth++
}

func (pc *PassContext) exitBlock() {
	pc.scopes = pc.scopes[:len(pc.scopes)-1]
	pc.depth--
}

// enterFunction starts a new top-level function. Nothing bound in another
// function is visible from it.
func (pc *PassContext) enterFunction() {
	pc.scopeSeq++
	pc.scopes = []int{pc.scopeSeq}
	pc.depth = 0
}

// Produce binds value to the node's first data output.
func (pc *PassContext) Produce(node *graph.Node, value ir.Expr) {
	outs := node.DataOutputs()
	if len(outs) == 0 {
		return
	}
	pc.SetVar(node.ID, outs[0].ID, value)
}

// ProduceNamed binds value to the data output matching one of names. It
// reports whether such an output exists.
func (pc *PassContext) ProduceNamed(node *graph.Node, value ir.Expr, names ...string) bool {
	port, ok := node.FindOutput(graph.PortKindData, names...)
	if !ok {
		return false
	}
	pc.SetVar(node.ID, port.ID, value)
	return true
}

// Hoist records a thread body and returns the generated function name.
func (pc *PassContext) Hoist(node *graph.Node, bodyPort string) string {
	name := fmt.Sprintf("%s_Thread%d", pc.rootFunc, len(pc.hoisted))
	pc.hoisted = append(pc.hoisted, Hoisted{Name: name, NodeID: node.ID, BodyPort: bodyPort})
	return name
}

// Warn records a warning diagnostic for the node
func (pc *PassContext) Warn(node *graph.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pc.logger.Warn().Str("node", node.ID).Msg(msg)
	pc.diagnostics = append(pc.diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Root:     pc.rootFunc,
		NodeID:   node.ID,
		Message:  msg,
	})
}
