package gen

import (
	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

func init() {
	RegisterRule("init-server", rootRule)
	RegisterRule("init-client", rootRule)
	RegisterRule("init-ui", rootRule)

	RegisterRule("branch", branchRule)
	RegisterRule("loop-for", forRule)
	RegisterRule("loop-foreach", foreachRule)
	RegisterRule("loop-while", whileRule)
	RegisterRule("thread", threadRule)
}

// rootRule handles an init or event node reached from another node's exec
// chain. It only continues its primary exec output.
func rootRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	next, err := pc.Next(node)
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: next}, nil
}

func branchRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	cond, err := pc.Input(node, 0, "condition", "cond")
	if err != nil {
		return EmitResult{}, err
	}

	stmt := &ir.IfStmt{Cond: cond}
	if port, ok := node.FindOutput(graph.PortKindExec, "true"); ok {
		if stmt.Then, err = pc.WalkBody(node, port.ID); err != nil {
			return EmitResult{}, err
		}
	}
	if port, ok := node.FindOutput(graph.PortKindExec, "false"); ok && pc.HasConnection(node, port.ID) {
		if stmt.Else, err = pc.WalkBody(node, port.ID); err != nil {
			return EmitResult{}, err
		}
		stmt.HasElse = true
	}

	after, err := pc.WalkNamed(node, "completed", "done")
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: append([]ir.Stmt{stmt}, after...)}, nil
}

func forRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	first, err := pc.Input(node, 0, "first", "start", "from")
	if err != nil {
		return EmitResult{}, err
	}
	last, err := pc.Input(node, 1, "last", "end", "to", "count")
	if err != nil {
		return EmitResult{}, err
	}
	if ir.IsNull(first) {
		first = ir.Raw("0")
	}
	if ir.IsNull(last) {
		last = ir.Raw("0")
	}

	v := pc.NewName("i")
	body, err := loopBody(pc, node, func() {
		pc.ProduceNamed(node, ir.Id(v), "index")
	})
	if err != nil {
		return EmitResult{}, err
	}
	return loopDone(pc, node, ir.For(v, first, last, body...))
}

func foreachRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	arr, err := pc.Input(node, 0, "array", "items", "list")
	if err != nil {
		return EmitResult{}, err
	}

	idx := pc.NewName("idx")
	elem := pc.NewName("elem")
	body, err := loopBody(pc, node, func() {
		pc.ProduceNamed(node, ir.Id(elem), "element", "item", "value")
		pc.ProduceNamed(node, ir.Id(idx), "index")
	})
	if err != nil {
		return EmitResult{}, err
	}
	return loopDone(pc, node, ir.Foreach(idx, elem, arr, body...))
}

func whileRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	cond, err := pc.Input(node, 0, "condition", "cond")
	if err != nil {
		return EmitResult{}, err
	}
	if ir.IsNull(cond) {
		cond = ir.False()
	}

	body, err := loopBody(pc, node)
	if err != nil {
		return EmitResult{}, err
	}
	return loopDone(pc, node, ir.While(cond, body...))
}

// loopBody walks the loop body. Loop variables are bound by bind inside the
// body block, so reads after the loop resolve to null.
func loopBody(pc *PassContext, node *graph.Node, bind ...func()) ([]ir.Stmt, error) {
	port, ok := node.FindOutput(graph.PortKindExec, "body", "loop", "loop body")
	if !ok {
		return nil, nil
	}
	return pc.WalkBody(node, port.ID, bind...)
}

func loopDone(pc *PassContext, node *graph.Node, loop ir.Stmt) (EmitResult, error) {
	after, err := pc.WalkNamed(node, "done", "completed")
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: append([]ir.Stmt{loop}, after...)}, nil
}

// threadRule starts the body as a separate function and keeps going on the
// current thread. The body is lowered later by the hoister.
func threadRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	stmts := make([]ir.Stmt, 0, 1)
	if port, ok := node.FindOutput(graph.PortKindExec, "body", "thread"); ok {
		name := pc.Hoist(node, port.ID)
		stmts = append(stmts, ir.Thread(ir.Call(name)))
	} else {
		pc.Warn(node, "thread node has no body output")
	}

	after, err := pc.WalkNamed(node, "continue", "next", "then")
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: append(stmts, after...)}, nil
}
