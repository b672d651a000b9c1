package gen

import (
	"errors"
	"fmt"
	"strings"

	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"

	"github.com/rs/zerolog"
)

// EmptyGraphOutput is returned verbatim for a graph without nodes.
const EmptyGraphOutput = "// Empty graph: nothing to compile.\n"

// Platform guards
const (
	GuardServer = "SERVER"
	GuardClient = "CLIENT"
	GuardUI     = "UI"
)

type compileOptions struct {
	logger   zerolog.Logger
	registry *Registry
}

// Option configures a Compile call
type Option func(*compileOptions)

// WithLogger sets the logger used for debug tracing and warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(o *compileOptions) {
		o.logger = logger
	}
}

// WithRegistry replaces the default rule registry
func WithRegistry(r *Registry) Option {
	return func(o *compileOptions) {
		o.registry = r
	}
}

// RootInfo summarises one compilation pass
type RootInfo struct {
	NodeID   string   `json:"nodeId"`
	Type     string   `json:"type"`
	Function string   `json:"function"`
	Guard    string   `json:"guard,omitempty"`
	Threads  []string `json:"threads,omitempty"`
	Empty    bool     `json:"empty,omitempty"`
	Aborted  bool     `json:"aborted,omitempty"`
}

// Result is the output of a Compile call
type Result struct {
	Source      string       `json:"source"`
	Roots       []RootInfo   `json:"roots"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// root describes the node a pass starts from
type root struct {
	node     *graph.Node
	function string
	guard    string
}

// pass is the lowered output of one root
type pass struct {
	root        root
	params      []ir.Param
	body        []ir.Stmt
	threads     []*ir.FuncDecl
	visited     map[string]bool
	diagnostics []Diagnostic
	err         error
}

var initRoots = []struct {
	nodeType string
	guard    string
	function string
}{
	{"init-server", GuardServer, "ModServer_Init"},
	{"init-client", GuardClient, "ModClient_Init"},
	{"init-ui", GuardUI, "ModUI_Init"},
}

// Compile lowers a node graph to a Squirrel script. Each root (server, client
// and UI init nodes, then events no earlier pass reached) is compiled in its
// own pass. A cyclic data dependency aborts only the pass it occurs in and is
// reported as a diagnostic.
func Compile(nodes []graph.Node, conns []graph.Connection, opts ...Option) (*Result, error) {
	o := compileOptions{
		logger:   zerolog.Nop(),
		registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(nodes) == 0 {
		return &Result{
			Source:      EmptyGraphOutput,
			Roots:       make([]RootInfo, 0),
			Diagnostics: make([]Diagnostic, 0),
		}, nil
	}

	idx := graph.NewIndex(nodes, conns)
	result := &Result{
		Roots:       make([]RootInfo, 0),
		Diagnostics: make([]Diagnostic, 0),
	}
	for _, c := range idx.Dangling() {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("connection %s (%s -> %s) references a missing node or port", c.ID, c.From, c.To),
		})
	}

	names := make(map[string]int)
	reached := make(map[string]bool)
	fb := NewFileBuilder()

	run := func(r root) {
		p := runPass(idx, o.registry, o.logger, r)
		for id := range p.visited {
			reached[id] = true
		}
		result.Diagnostics = append(result.Diagnostics, p.diagnostics...)

		info := RootInfo{
			NodeID:   r.node.ID,
			Type:     r.node.Type,
			Function: r.function,
			Guard:    r.guard,
		}
		for _, fn := range p.threads {
			info.Threads = append(info.Threads, fn.Name)
		}

		var cycle *CyclicDependencyError
		switch {
		case errors.As(p.err, &cycle):
			info.Aborted = true
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Root:     r.function,
				NodeID:   cycle.NodeID,
				Message:  p.err.Error(),
			})
			o.logger.Warn().Err(p.err).Str("root", r.function).Msg("pass aborted")
			fb.AddAborted(r, p.err)
		case len(p.body) == 0 && len(p.threads) == 0:
			info.Empty = true
		default:
			fb.AddPass(p)
		}
		result.Roots = append(result.Roots, info)
	}

	for _, kind := range initRoots {
		for _, n := range idx.Nodes() {
			if n.Type != kind.nodeType {
				continue
			}
			run(root{
				node:     n,
				function: uniqueName(names, ConfigString(n, "functionName", kind.function)),
				guard:    kind.guard,
			})
		}
	}

	for _, n := range idx.Nodes() {
		if !n.IsEvent() || isInitType(n.Type) || reached[n.ID] {
			continue
		}
		run(root{
			node:     n,
			function: uniqueName(names, ConfigString(n, "functionName", eventFuncName(n))),
			guard:    eventGuard(n),
		})
	}

	src, err := fb.Emit()
	if err != nil {
		return nil, fmt.Errorf("failed to emit script: %w", err)
	}
	result.Source = src
	return result, nil
}

// CompileDocument compiles the nodes and connections of a project document
func CompileDocument(doc *graph.Document, opts ...Option) (*Result, error) {
	return Compile(doc.Nodes, doc.Connections, opts...)
}

func runPass(idx *graph.Index, registry *Registry, logger zerolog.Logger, r root) *pass {
	pc := newPassContext(idx, registry, logger, r.node, r.function)
	p := &pass{root: r}
	defer func() {
		p.visited = pc.visited
		p.diagnostics = pc.diagnostics
	}()

	pc.visited[r.node.ID] = true
	p.params = bindRootParams(pc, r.node)

	body, err := pc.Next(r.node)
	if err != nil {
		p.err = err
		return p
	}
	threads, err := pc.lowerHoisted()
	if err != nil {
		p.err = err
		return p
	}

	p.body = body
	p.threads = threads
	return p
}

// bindRootParams exposes the root's data outputs as function parameters.
func bindRootParams(pc *PassContext, node *graph.Node) []ir.Param {
	outs := node.DataOutputs()
	params := make([]ir.Param, 0, len(outs))
	for _, p := range outs {
		name := lowerFirst(sanitizeIdent(p.Label))
		if name == "" {
			name = lowerFirst(sanitizeIdent(p.ID))
		}
		if name == "" {
			name = pc.NewName("arg")
		}
		params = append(params, ir.Param{Type: paramType(p.DataType), Name: name})
		pc.SetVar(node.ID, p.ID, ir.Id(name))
	}
	return params
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func paramType(dataType string) string {
	switch strings.ToLower(dataType) {
	case "entity", "player":
		return "entity"
	case "int", "float", "bool", "string", "vector", "asset":
		return strings.ToLower(dataType)
	case "array":
		return "array"
	case "table":
		return "table"
	default:
		return "var"
	}
}

func isInitType(t string) bool {
	for _, r := range initRoots {
		if r.nodeType == t {
			return true
		}
	}
	return false
}

// eventGuard returns the platform stored in the node's data, if it is one
// of the known guards.
func eventGuard(node *graph.Node) string {
	switch g := strings.ToUpper(ConfigString(node, "platform", "")); g {
	case GuardServer, GuardClient, GuardUI:
		return g
	}
	return ""
}

// eventFuncName derives a callback name such as OnPlayerSpawned from an
// event-player-spawned node.
func eventFuncName(node *graph.Node) string {
	base := strings.TrimPrefix(node.Type, "event-")
	if base == node.Type && node.Label != "" {
		base = node.Label
	}
	var b strings.Builder
	b.WriteString("On")
	for _, part := range strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	name := sanitizeIdent(b.String())
	if name == "On" {
		return "OnEvent"
	}
	return name
}

func uniqueName(used map[string]int, name string) string {
	name = sanitizeIdent(name)
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}
