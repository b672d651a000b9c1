package gen

import (
	"modgraph/internal/gen/ir"
)

// lowerHoisted turns every recorded thread body into its own function. Bodies
// may start further threads, so the list is re-read on each iteration.
func (pc *PassContext) lowerHoisted() ([]*ir.FuncDecl, error) {
	funcs := make([]*ir.FuncDecl, 0, len(pc.hoisted))
	for i := 0; i < len(pc.hoisted); i++ {
		h := pc.hoisted[i]
		node := pc.index.Node(h.NodeID)

		pc.enterFunction()
		body, err := pc.WalkBody(node, h.BodyPort)
		if err != nil {
			return nil, err
		}
		pc.logger.Debug().Str("thread", h.Name).Int("stmts", len(body)).Msg("hoisted thread body")
		funcs = append(funcs, ir.NewFunc(h.Name).Body(body...).Build())
	}
	return funcs, nil
}
