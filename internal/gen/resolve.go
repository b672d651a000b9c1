package gen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"modgraph/internal/gen/ir"
	"modgraph/internal/graph"
)

// ValueOf resolves the expression feeding a data input.
//
// A connected producer is generated on first demand; any statements it emits
// are spliced in front of the statement currently being emitted. A pure data
// producer whose value was bound in a block not enclosing this one is
// generated again here. Without a connection the node's own data map is
// searched by port label. Anything that cannot be resolved becomes null.
func (pc *PassContext) ValueOf(node *graph.Node, portID string) (ir.Expr, error) {
	if conns := pc.index.To(node.ID, portID); len(conns) > 0 {
		src := conns[0].From
		if v, ok := pc.Var(src.NodeID, src.PortID); ok {
			return v, nil
		}
		if pc.resolving[src.NodeID] {
			return nil, &CyclicDependencyError{NodeID: src.NodeID, PortID: src.PortID}
		}

		producer := pc.index.Node(src.NodeID)
		switch {
		case !pc.visited[src.NodeID]:
			pc.visited[producer.ID] = true
		case isPureData(producer) && pc.boundElsewhere(src.NodeID, src.PortID):
			pc.logger.Debug().Str("node", producer.ID).Msg("value bound out of scope, generating it again")
		case pc.boundElsewhere(src.NodeID, src.PortID):
			pc.Warn(node, "value of %s is not in scope here, using null", src)
			return ir.Null(), nil
		default:
			pc.logger.Debug().Str("node", node.ID).Str("port", portID).Msg("producer bound no value here, using null")
			return ir.Null(), nil
		}

		if err := pc.resolve(producer); err != nil {
			return nil, err
		}
		if v, ok := pc.Var(src.NodeID, src.PortID); ok {
			return v, nil
		}
		pc.logger.Debug().Str("node", node.ID).Str("port", portID).Msg("producer bound no value, using null")
		return ir.Null(), nil
	}

	port, ok := node.Input(portID)
	if !ok {
		return ir.Null(), nil
	}
	label := port.Label
	if label == "" {
		label = port.ID
	}
	if v, ok := lookupData(node.Data, label); ok {
		return FormatLiteral(v), nil
	}
	return ir.Null(), nil
}

// resolve runs a producer's rule on demand and queues its statements in
// front of the statement being emitted.
func (pc *PassContext) resolve(producer *graph.Node) error {
	pc.resolving[producer.ID] = true
	defer delete(pc.resolving, producer.ID)

	stmts, err := pc.emitNode(producer)
	if err != nil {
		return err
	}
	pc.prelude = append(pc.prelude, stmts...)
	return nil
}

// isPureData reports whether a node has no exec ports, so generating it again
// has no effect on control flow.
func isPureData(node *graph.Node) bool {
	for _, p := range node.Inputs {
		if p.IsExec() {
			return false
		}
	}
	return len(node.ExecOutputs()) == 0
}

// Input resolves the data input matching one of names, falling back to the
// data input at position pos. A node without such an input yields its data
// value under the first name, or null.
func (pc *PassContext) Input(node *graph.Node, pos int, names ...string) (ir.Expr, error) {
	if port, ok := node.FindInput(graph.PortKindData, names...); ok {
		return pc.ValueOf(node, port.ID)
	}
	if inputs := node.DataInputs(); pos >= 0 && pos < len(inputs) {
		return pc.ValueOf(node, inputs[pos].ID)
	}
	for _, name := range names {
		if v, ok := lookupData(node.Data, name); ok {
			return FormatLiteral(v), nil
		}
	}
	return ir.Null(), nil
}

// Inputs resolves every data input in declaration order.
func (pc *PassContext) Inputs(node *graph.Node) ([]ir.Expr, error) {
	inputs := node.DataInputs()
	out := make([]ir.Expr, 0, len(inputs))
	for _, p := range inputs {
		v, err := pc.ValueOf(node, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Config formats the node's data value under key as a literal, or returns def.
func Config(node *graph.Node, key string, def ir.Expr) ir.Expr {
	if v, ok := lookupData(node.Data, key); ok {
		return FormatLiteral(v)
	}
	return def
}

// ConfigString returns the raw string stored under key, or def.
func ConfigString(node *graph.Node, key string, def string) string {
	v, ok := lookupData(node.Data, key)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return def
		}
		return s
	case json.Number:
		return s.String()
	case map[string]any:
		if inner, ok := s["value"]; ok {
			return fmt.Sprint(inner)
		}
	}
	return def
}

// lookupData finds a data value by normalised key: exact match first, then
// the first key (in sorted order) that contains the wanted name.
func lookupData(data map[string]any, name string) (any, bool) {
	if len(data) == 0 {
		return nil, false
	}
	want := graph.NormalizeKey(name)
	if want == "" {
		return nil, false
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if graph.NormalizeKey(k) == want {
			return data[k], true
		}
	}
	for _, k := range keys {
		if strings.Contains(graph.NormalizeKey(k), want) {
			return data[k], true
		}
	}
	return nil, false
}

// FormatLiteral converts a decoded data value into a script expression.
// Objects tagged {"type": "asset"|"function", "value": ...} are emitted bare.
func FormatLiteral(v any) ir.Expr {
	switch val := v.(type) {
	case nil:
		return ir.Null()
	case string:
		return ir.Lit(val)
	case json.Number:
		return ir.Raw(val.String())
	case bool:
		return ir.Lit(val)
	case int:
		return ir.Lit(val)
	case int64:
		return ir.Lit(val)
	case float32:
		return ir.Raw(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case float64:
		return ir.Raw(strconv.FormatFloat(val, 'f', -1, 64))
	case []any:
		elems := make([]ir.Expr, len(val))
		for i, e := range val {
			elems[i] = FormatLiteral(e)
		}
		return ir.Array(elems...)
	case map[string]any:
		if tag, ok := val["type"].(string); ok && (tag == "asset" || tag == "function") {
			ref, ok := val["value"]
			if !ok || ref == nil || fmt.Sprint(ref) == "" {
				return ir.Null()
			}
			return ir.Raw(fmt.Sprint(ref))
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]ir.TableField, len(keys))
		for i, k := range keys {
			fields[i] = ir.TableField{Key: k, Value: FormatLiteral(val[k])}
		}
		return ir.Table(fields...)
	default:
		return ir.Lit(fmt.Sprint(val))
	}
}
