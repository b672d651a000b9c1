package gen

import (
	"sort"
	"strings"

	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

// EmitResult is what a rule produces for a single node. Statements are
// relative to the block the node is emitted into.
type EmitResult struct {
	Stmts []ir.Stmt
}

// Rule lowers one node type. Rules read their inputs through
// PassContext.ValueOf and continue control flow through PassContext.WalkPort.
type Rule func(pc *PassContext, node *graph.Node) (EmitResult, error)

// Registry holds all registered rules
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates a new rule registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register registers a rule for a node type
func (r *Registry) Register(nodeType string, rule Rule) {
	r.rules[nodeType] = rule
}

// Lookup returns the rule for a node type. Event nodes without a dedicated
// rule fall back to the generic root rule.
func (r *Registry) Lookup(node *graph.Node) (Rule, bool) {
	if rule, ok := r.rules[node.Type]; ok {
		return rule, true
	}
	if node.IsEvent() {
		return rootRule, true
	}
	return nil, false
}

// Types returns the registered node types in sorted order
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.rules))
	for t := range r.rules {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clone returns a copy that can be extended without touching the original
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for t, rule := range r.rules {
		c.rules[t] = rule
	}
	return c
}

// DefaultRegistry is the default rule registry
var DefaultRegistry = NewRegistry()

// RegisterRule registers a rule with the default registry
func RegisterRule(nodeType string, rule Rule) {
	DefaultRegistry.Register(nodeType, rule)
}

// unknownRule keeps the pass going when no rule exists for a node type.
func unknownRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	pc.Warn(node, "unhandled node type %q", node.Type)
	stmts := []ir.Stmt{ir.Commentf("TODO: unhandled node type %q (%s)", node.Type, node.ID)}

	execs := node.ExecOutputs()
	if len(execs) == 0 {
		return EmitResult{Stmts: stmts}, nil
	}
	next, err := pc.WalkPort(node, execs[0].ID)
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: append(stmts, next...)}, nil
}

// sanitizeIdent turns an arbitrary label into a Squirrel identifier.
func sanitizeIdent(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			if b.Len() == 0 && r >= '0' && r <= '9' {
				b.WriteByte('_')
			}
			if upper && b.Len() > 0 {
				b.WriteString(strings.ToUpper(string(r)))
			} else {
				b.WriteRune(r)
			}
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}
