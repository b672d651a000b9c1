package gen

import (
	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

func init() {
	RegisterRule("print", printRule)
	RegisterRule("set-variable", setVariableRule)
	RegisterRule("set-entity-health", methodActionRule("SetHealth", []string{"health", "value"}))
	RegisterRule("set-entity-origin", methodActionRule("SetOrigin", []string{"origin", "position", "value"}))
	RegisterRule("kill-entity", methodActionRule("Die"))
	RegisterRule("take-damage", takeDamageRule)
	RegisterRule("play-sound", callActionRule("EmitSoundOnEntity", []string{"entity", "target"}, []string{"sound", "alias"}))
	RegisterRule("play-particle", playParticleRule)
	RegisterRule("give-weapon", giveWeaponRule)
	RegisterRule("wait", waitRule)
	RegisterRule("call-function", callFunctionRule)
	RegisterRule("return", returnRule)
}

// continueAfter appends whatever follows the node's primary exec output.
func continueAfter(pc *PassContext, node *graph.Node, stmts ...ir.Stmt) (EmitResult, error) {
	next, err := pc.Next(node)
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: append(stmts, next...)}, nil
}

func printRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	msg, err := pc.Input(node, 0, "message", "text", "value")
	if err != nil {
		return EmitResult{}, err
	}
	return continueAfter(pc, node, ir.ExprStatement(ir.Call("printt", msg)))
}

func setVariableRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	name := sanitizeIdent(ConfigString(node, "name", ""))
	value, err := pc.Input(node, 0, "value")
	if err != nil {
		return EmitResult{}, err
	}
	if name == "" {
		pc.Warn(node, "set-variable has no name")
		return continueAfter(pc, node)
	}
	pc.ProduceNamed(node, ir.Id(name), "value", "out")
	return continueAfter(pc, node, ir.Assign(ir.Id(name), value))
}

// callActionRule emits a global call whose arguments come from the named inputs.
func callActionRule(fn string, args ...[]string) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		values := make([]ir.Expr, 0, len(args))
		for i, names := range args {
			v, err := pc.Input(node, i, names...)
			if err != nil {
				return EmitResult{}, err
			}
			values = append(values, v)
		}
		return continueAfter(pc, node, ir.ExprStatement(ir.Call(fn, values...)))
	}
}

// methodActionRule emits a method call on the node's entity input. The entity
// is the first data input; the remaining named inputs become arguments.
func methodActionRule(method string, args ...[]string) Rule {
	return func(pc *PassContext, node *graph.Node) (EmitResult, error) {
		ent, err := pc.Input(node, 0, "entity", "player", "target")
		if err != nil {
			return EmitResult{}, err
		}
		values := make([]ir.Expr, 0, len(args))
		for i, names := range args {
			v, err := pc.Input(node, i+1, names...)
			if err != nil {
				return EmitResult{}, err
			}
			values = append(values, v)
		}
		return continueAfter(pc, node, ir.ExprStatement(ir.CallOn(ent, method, values...)))
	}
}

func takeDamageRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	ent, err := pc.Input(node, 0, "entity", "target", "victim")
	if err != nil {
		return EmitResult{}, err
	}
	amount, err := pc.Input(node, 1, "amount", "damage")
	if err != nil {
		return EmitResult{}, err
	}
	attacker, err := pc.Input(node, 2, "attacker", "source")
	if err != nil {
		return EmitResult{}, err
	}
	sourceID := ConfigString(node, "damageSource", "eDamageSourceId.damagedef_unknown")

	call := ir.CallOn(ent, "TakeDamage", amount, attacker, ir.Null(),
		ir.Table(ir.TableField{Key: "damageSourceId", Value: ir.Raw(sourceID)}))
	return continueAfter(pc, node, ir.ExprStatement(call))
}

func playParticleRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	effect, err := pc.Input(node, 0, "effect", "particle", "asset")
	if err != nil {
		return EmitResult{}, err
	}
	origin, err := pc.Input(node, 1, "origin", "position")
	if err != nil {
		return EmitResult{}, err
	}
	angles, err := pc.Input(node, 2, "angles", "rotation")
	if err != nil {
		return EmitResult{}, err
	}
	if ir.IsNull(angles) {
		angles = ir.Raw("<0, 0, 0>")
	}

	call := ir.Call("StartParticleEffectInWorld", ir.Call("GetParticleSystemIndex", effect), origin, angles)
	return continueAfter(pc, node, ir.ExprStatement(call))
}

func giveWeaponRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	player, err := pc.Input(node, 0, "player", "entity")
	if err != nil {
		return EmitResult{}, err
	}
	weapon, err := pc.Input(node, 1, "weapon", "class")
	if err != nil {
		return EmitResult{}, err
	}
	slot := ConfigString(node, "slot", "WEAPON_INVENTORY_SLOT_ANY")

	call := ir.CallOn(player, "GiveWeapon", weapon, ir.Raw(slot))
	return continueAfter(pc, node, ir.ExprStatement(call))
}

func waitRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	seconds, err := pc.Input(node, 0, "seconds", "duration", "time")
	if err != nil {
		return EmitResult{}, err
	}
	if ir.IsNull(seconds) {
		seconds = ir.Raw("0.0")
	}
	return continueAfter(pc, node, ir.RawStatementf("wait %s", ir.FormatExpr(seconds)))
}

// callFunctionRule calls a script function by name with every data input as
// an argument. A connected result output is captured in a local.
func callFunctionRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	fn := ConfigString(node, "function", "")
	if fn == "" {
		fn = ConfigString(node, "name", "")
	}
	if fn == "" {
		pc.Warn(node, "call-function has no function name")
		return continueAfter(pc, node, ir.Commentf("call-function %s has no function name", node.ID))
	}

	args, err := pc.Inputs(node)
	if err != nil {
		return EmitResult{}, err
	}
	call := ir.Call(fn, args...)

	if outs := node.DataOutputs(); len(outs) > 0 {
		name := pc.NewName("res")
		pc.SetVar(node.ID, outs[0].ID, ir.Id(name))
		return continueAfter(pc, node, ir.Local(name, call))
	}
	return continueAfter(pc, node, ir.ExprStatement(call))
}

func returnRule(pc *PassContext, node *graph.Node) (EmitResult, error) {
	inputs := node.DataInputs()
	if len(inputs) == 0 {
		return EmitResult{Stmts: []ir.Stmt{ir.Return(nil)}}, nil
	}
	v, err := pc.ValueOf(node, inputs[0].ID)
	if err != nil {
		return EmitResult{}, err
	}
	return EmitResult{Stmts: []ir.Stmt{ir.Return(v)}}, nil
}
