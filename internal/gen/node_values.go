package gen

import (
	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

// Pure value rules bind an expression to their output and emit nothing,
// except make-vector and make-array which materialise a local.

func init() {
	RegisterRule("const-int", constRule(ir.Raw("0")))
	RegisterRule("const-float", constRule(ir.Raw("0.0")))
	RegisterRule("const-bool", constRule(ir.False()))
	RegisterRule("const-string", constRule(ir.Lit("")))
	RegisterRule("const-asset", constRule(ir.Null()))
	RegisterRule("const-null", constRule(ir.Null()))

	RegisterRule("reroute", rerouteRule)

	RegisterRule("math-add", binaryRule("+"))
	RegisterRule("math-sub", binaryRule("-"))
	RegisterRule("math-mul", binaryRule("*"))
	RegisterRule("math-div", binaryRule("/"))
	RegisterRule("math-mod", binaryRule("%"))
	RegisterRule("math-negate", unaryRule(ir.Neg))
	RegisterRule("compare", compareRule)
	RegisterRule("logic-and", binaryRule("&&"))
	RegisterRule("logic-or", binaryRule("||"))
	RegisterRule("logic-not", unaryRule(ir.Not))
	RegisterRule("string-concat", binaryRule("+"))

	RegisterRule("get-variable", getVariableRule)
	RegisterRule("random-int", callValueRule("RandomIntRange", []string{"min", "minimum"}, []string{"max", "maximum"}))
	RegisterRule("random-float", callValueRule("RandomFloatRange", []string{"min", "minimum"}, []string{"max", "maximum"}))
	RegisterRule("get-players", callValueRule("GetPlayerArray"))
	RegisterRule("get-time", callValueRule("Time"))
	RegisterRule("get-entity-origin", methodValueRule("GetOrigin"))
	RegisterRule("get-entity-health", methodValueRule("GetHealth"))

	RegisterRule("make-vector", makeVectorRule)
	RegisterRule("make-array", makeArrayRule)
}

// constRule binds the node's "value" data to its output. A constant's value
// can also arrive through a connected input.
func constRule(def ir.Expr) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		value := Config(node, "value", def)
		if port, ok := node.FindInput(graph.PortKindData, "value"); ok && len(pc.index.To(node.ID, port.ID)) > 0 {
			v, err := pc.ValueOf(node, port.ID)
			if err != nil {
				return EmitResult{}, err
			}
			value = v
		}
		pc.Produce(node, value)
		return EmitResult{}, nil
	}
}

func rerouteRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	v, err := pc.Input(node, 0, "in", "value")
	if err != nil {
		return EmitResult{}, err
	}
	pc.Produce(node, v)
	return EmitResult{}, nil
}

func binaryRule(op string) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		a, err := pc.Input(node, 0, "a", "left")
		if err != nil {
			return EmitResult{}, err
		}
		b, err := pc.Input(node, 1, "b", "right")
		if err != nil {
			return EmitResult{}, err
		}
		pc.Produce(node, ir.Bin(a, op, b))
		return EmitResult{}, nil
	}
}

func unaryRule(build func(ir.Expr) *ir.UnaryExpr) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		x, err := pc.Input(node, 0, "value", "in")
		if err != nil {
			return EmitResult{}, err
		}
		pc.Produce(node, build(x))
		return EmitResult{}, nil
	}
}

var compareOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func compareRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	op := ConfigString(node, "op", "==")
	if !compareOps[op] {
		pc.Warn(node, "unknown comparison operator %q, using ==", op)
		op = "=="
	}
	return binaryRule(op)(pc, node)
}

func getVariableRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	name := sanitizeIdent(ConfigString(node, "name", ""))
	if name == "" {
		pc.Warn(node, "get-variable has no name")
		pc.Produce(node, ir.Null())
		return EmitResult{}, nil
	}
	pc.Produce(node, ir.Id(name))
	return EmitResult{}, nil
}

// callValueRule binds a global call whose arguments come from the named inputs.
func callValueRule(fn string, args ...[]string) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		values := make([]ir.Expr, 0, len(args))
		for i, names := range args {
			v, err := pc.Input(node, i, names...)
			if err != nil {
				return EmitResult{}, err
			}
			values = append(values, v)
		}
		pc.Produce(node, ir.Call(fn, values...))
		return EmitResult{}, nil
	}
}

// methodValueRule binds a method call on the node's entity input.
func methodValueRule(method string) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		ent, err := pc.Input(node, 0, "entity", "player", "target")
		if err != nil {
			return EmitResult{}, err
		}
		pc.Produce(node, ir.CallOn(ent, method))
		return EmitResult{}, nil
	}
}

func makeVectorRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	coords := make([]ir.Expr, 0, 3)
	for i, axis := range []string{"x", "y", "z"} {
		v, err := pc.Input(node, i, axis)
		if err != nil {
			return EmitResult{}, err
		}
		if ir.IsNull(v) {
			v = ir.Raw("0")
		}
		coords = append(coords, v)
	}

	name := pc.NewName("vec")
	pc.Produce(node, ir.Id(name))
	return EmitResult{Stmts: []ir.Stmt{ir.Local(name, ir.Call("Vector", coords...))}}, nil
}

func makeArrayRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	elems, err := pc.Inputs(node)
	if err != nil {
		return EmitResult{}, err
	}
	if len(elems) == 0 {
		if items, ok := Config(node, "items", nil).(*ir.ArrayLit); ok {
			elems = items.Elements
		}
	}

	name := pc.NewName("arr")
	pc.Produce(node, ir.Id(name))
	return EmitResult{Stmts: []ir.Stmt{ir.Local(name, ir.Array(elems...))}}, nil
}
