package cfg

import "fmt"

// Export converts g and its anonymous function graphs to their serializable
// form.
func Export(g *Graph) *CFGInfo {
	info := &CFGInfo{
		FunctionName: g.Name,
		Receiver:     g.Receiver,
		ResultShape:  g.Results.Kind.String(),
		Entry:        int(g.Entry()),
		Nodes:        make([]NodeInfo, 0, g.NodeCount()),
		Edges:        make([]EdgeInfo, 0, g.EdgeCount()),
	}
	for _, p := range g.Params {
		pi := ParamInfo{Name: p.Name}
		if p.Type != nil {
			pi.Type = p.Type.String()
		}
		info.Params = append(info.Params, pi)
	}
	if g.Results.Type != nil {
		if g.Results.Type.IsTuple() {
			for _, f := range g.Results.Type.Fields {
				info.Results = append(info.Results, f.Type.String())
			}
		} else {
			info.Results = []string{g.Results.Type.String()}
		}
	}

	for _, n := range g.Nodes() {
		ni := NodeInfo{
			ID:        int(n.ID),
			Kind:      n.Kind.String(),
			Text:      n.Text,
			Line:      n.Pos.Line,
			Column:    n.Pos.Column,
			Stops:     n.StopsExecution(),
			Synthetic: n.Synthetic,
			Label:     n.Label,
			Visible:   g.VisibleIDs(n.ID),
		}
		if info.File == "" {
			info.File = n.Pos.Filename
		}
		if n.Call != nil {
			ni.Call = calleeName(n.Call)
			ni.CallKind = n.Call.Kind.String()
		}
		if n.Kind == KindCondition || n.Kind == KindLoopGuard {
			ni.Sat = n.Sat.String()
		}
		info.Nodes = append(info.Nodes, ni)
	}
	for _, e := range g.Edges() {
		info.Edges = append(info.Edges, EdgeInfo{From: int(e.From), To: int(e.To), Kind: e.Kind.String()})
	}
	for _, id := range g.Exits() {
		info.Exits = append(info.Exits, int(id))
	}
	for _, v := range g.Variables() {
		info.Variables = append(info.Variables, VariableInfo{
			Name:     v.Name,
			Kind:     v.Kind.String(),
			Decl:     int(v.Decl),
			ScopeEnd: int(v.ScopeEnd),
			Depth:    v.Depth,
		})
	}
	for _, r := range g.Regions() {
		info.Regions = append(info.Regions, RegionInfo{
			Kind:      r.Kind.String(),
			Condition: int(r.Condition),
			Exit:      int(r.Exit),
			Nodes:     ints(r.Nodes),
			Then:      ints(r.Then),
			Else:      ints(r.Else),
		})
	}
	info.Deferred = ints(g.Deferred())
	for _, a := range g.Anonymous() {
		info.Anonymous = append(info.Anonymous, Export(a))
	}
	info.CyclomaticComplexity = CyclomaticComplexity(g)
	return info
}

// CyclomaticComplexity counts the decision nodes of g plus one. A decision
// node is one with an outgoing True edge.
func CyclomaticComplexity(g *Graph) int {
	decisions := 0
	for _, n := range g.Nodes() {
		for _, e := range g.out[n.ID] {
			if e.Kind == True {
				decisions++
				break
			}
		}
	}
	return decisions + 1
}

func calleeName(c *Call) string {
	switch c.Kind {
	case CallQualified, CallNative:
		if c.Stub != nil {
			return c.Stub.Key.String()
		}
		return c.Package + "." + c.Name
	case CallInstance:
		return exprString(c.Receiver) + "." + c.Name
	case CallDynamic:
		if c.Expr != nil {
			return exprString(c.Expr.Fun)
		}
	}
	return c.Name
}

func ints(ids []NodeID) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// Summary renders a one-line description of g.
func Summary(g *Graph) string {
	return fmt.Sprintf("%s nodes=%d edges=%d complexity=%d", g.Name, g.NodeCount(), g.EdgeCount(), CyclomaticComplexity(g))
}
