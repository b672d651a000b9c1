package gen

import (
	"testing"

	"modgraph/internal/graph"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// serverBody compiles a server init chain through the given nodes and returns
// the generated script.
func serverBody(t *testing.T, chain []graph.Node, extra []graph.Node, conns []graph.Connection) string {
	t.Helper()
	nodes := append([]graph.Node{initNode("srv", "init-server")}, chain...)
	nodes = append(nodes, extra...)

	prev, port := "srv", "out"
	for _, n := range chain {
		conns = append(conns, link(prev, port, n.ID, "in"))
		prev, port = n.ID, "out"
	}
	return compile(t, nodes, conns).Source
}

func actionNode(id, typ string, data map[string]any, inputs ...string) graph.Node {
	n := graph.Node{
		ID:      id,
		Type:    typ,
		Inputs:  ports(execPort("in")),
		Outputs: ports(execPort("out")),
		Data:    data,
	}
	for _, in := range inputs {
		n.Inputs = append(n.Inputs, dataPort(in))
	}
	return n
}

func valueNode(id, typ string, data map[string]any, inputs ...string) graph.Node {
	n := graph.Node{
		ID:      id,
		Type:    typ,
		Outputs: ports(dataPort("out")),
		Data:    data,
	}
	for _, in := range inputs {
		n.Inputs = append(n.Inputs, dataPort(in))
	}
	return n
}

func TestRules_Actions(t *testing.T) {
	tests := []struct {
		name string
		node graph.Node
		want string
	}{
		{
			name: "set variable",
			node: actionNode("n", "set-variable", map[string]any{"name": "roundCount", "value": 3}, "value"),
			want: "    roundCount = 3\n",
		},
		{
			name: "set entity health",
			node: actionNode("n", "set-entity-health", map[string]any{"entity": map[string]any{"type": "function", "value": "gp()[0]"}, "health": 50}, "entity", "health"),
			want: "    gp()[0].SetHealth( 50 )\n",
		},
		{
			name: "play sound",
			node: actionNode("n", "play-sound", map[string]any{"sound": "Wraith_PhaseGate_Travel_1p"}, "entity", "sound"),
			want: "    EmitSoundOnEntity( null, \"Wraith_PhaseGate_Travel_1p\" )\n",
		},
		{
			name: "wait default",
			node: actionNode("n", "wait", nil, "seconds"),
			want: "    wait 0.0\n",
		},
		{
			name: "wait",
			node: actionNode("n", "wait", map[string]any{"seconds": 2.5}, "seconds"),
			want: "    wait 2.5\n",
		},
		{
			name: "give weapon",
			node: actionNode("n", "give-weapon", map[string]any{"weapon": "mp_weapon_r97"}, "player", "weapon"),
			want: "    null.GiveWeapon( \"mp_weapon_r97\", WEAPON_INVENTORY_SLOT_ANY )\n",
		},
		{
			name: "take damage",
			node: actionNode("n", "take-damage", map[string]any{"amount": 25}, "entity", "amount", "attacker"),
			want: "    null.TakeDamage( 25, null, null, { damageSourceId = eDamageSourceId.damagedef_unknown } )\n",
		},
		{
			name: "call function without result",
			node: actionNode("n", "call-function", map[string]any{"function": "Mod_Announce", "text": "go"}, "text"),
			want: "    Mod_Announce( \"go\" )\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := serverBody(t, []graph.Node{tt.node}, nil, nil)
			assert.Contains(t, src, "{\n"+tt.want+"}\n")
		})
	}
}

func TestRules_PureValuesInline(t *testing.T) {
	add := valueNode("add", "math-add", nil, "a", "b")
	a := valueNode("a", "const-int", map[string]any{"value": 2})
	b := valueNode("b", "const-float", map[string]any{"value": 0.5})
	cmp := valueNode("cmp", "compare", map[string]any{"op": ">="}, "a", "b")
	health := valueNode("hp", "get-entity-health", nil, "entity")
	not := valueNode("not", "logic-not", nil, "value")

	pr := printNode("p1", nil)
	br := graph.Node{
		ID:      "br",
		Type:    "branch",
		Inputs:  ports(execPort("in"), dataPort("condition")),
		Outputs: ports(execPort("true"), execPort("false")),
	}
	conns := []graph.Connection{
		link("a", "out", "add", "a"),
		link("b", "out", "add", "b"),
		link("add", "out", "p1", "message"),
		link("hp", "out", "cmp", "a"),
		link("add", "out", "cmp", "b"),
		link("cmp", "out", "not", "value"),
		link("not", "out", "br", "condition"),
	}

	src := serverBody(t, []graph.Node{pr, br}, []graph.Node{add, a, b, cmp, health, not}, conns)

	assert.Contains(t, src, "    printt( (2 + 0.5) )\n")
	assert.Contains(t, src, "    if ( !(null.GetHealth() >= (2 + 0.5)) )\n")
}

func TestRules_UnknownCompareOperator(t *testing.T) {
	cmp := valueNode("cmp", "compare", map[string]any{"op": "<>", "a": 1, "b": 2}, "a", "b")
	pr := printNode("p1", nil)

	nodes := []graph.Node{initNode("srv", "init-server"), pr, cmp}
	conns := []graph.Connection{
		link("srv", "out", "p1", "in"),
		link("cmp", "out", "p1", "message"),
	}
	res := compile(t, nodes, conns)

	assert.Contains(t, res.Source, "printt( (1 == 2) )")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "cmp", res.Diagnostics[0].NodeID)
}

func TestRules_CallFunctionCapturesResult(t *testing.T) {
	call := actionNode("call", "call-function", map[string]any{"function": "GetScore"})
	call.Outputs = append(call.Outputs, dataPort("result"))
	pr := printNode("p1", nil)
	conns := []graph.Connection{link("call", "result", "p1", "message")}

	src := serverBody(t, []graph.Node{call, pr}, nil, conns)

	assert.Contains(t, src, "    local res0 = GetScore()\n    printt( res0 )\n")
}

func TestRules_MakeArrayAndWhile(t *testing.T) {
	arr := valueNode("arr", "make-array", nil, "first", "second")
	arr.Data = map[string]any{"first": "a", "second": "b"}
	loop := graph.Node{
		ID:      "loop",
		Type:    "loop-while",
		Inputs:  ports(execPort("in"), dataPort("condition")),
		Outputs: ports(execPort("body"), execPort("done")),
		Data:    map[string]any{"condition": true},
	}
	body := printNode("inner", nil)
	after := printNode("after", "after")
	conns := []graph.Connection{
		link("srv", "out", "loop", "in"),
		link("loop", "body", "inner", "in"),
		link("arr", "out", "inner", "message"),
		link("loop", "done", "after", "in"),
	}
	nodes := []graph.Node{initNode("srv", "init-server"), loop, body, after, arr}

	res := compile(t, nodes, conns)

	expected := "" +
		"    while ( true )\n" +
		"    {\n" +
		"        local arr0 = [\"a\", \"b\"]\n" +
		"        printt( arr0 )\n" +
		"    }\n" +
		"    printt( \"after\" )\n"
	assert.Contains(t, res.Source, expected)
}

func TestRules_ReturnStopsChain(t *testing.T) {
	ret := actionNode("ret", "return", nil)
	pr := printNode("p1", "unreachable")
	conns := []graph.Connection{link("ret", "out", "p1", "in")}

	src := serverBody(t, []graph.Node{ret}, []graph.Node{pr}, conns)

	assert.Contains(t, src, "{\n    return\n}")
	assert.NotContains(t, src, "unreachable")
}

func TestRegistry_Types(t *testing.T) {
	types := DefaultRegistry.Types()
	for _, want := range []string{"branch", "loop-for", "loop-foreach", "loop-while", "thread", "print", "make-vector", "init-server"} {
		assert.Contains(t, types, want)
	}
	assert.IsIncreasing(t, types)

	custom := DefaultRegistry.Clone()
	custom.Register("custom-noop", rootRule)
	_, ok := custom.Lookup(&graph.Node{Type: "custom-noop"})
	assert.True(t, ok)
	_, ok = DefaultRegistry.Lookup(&graph.Node{Type: "custom-noop"})
	assert.False(t, ok)
}
