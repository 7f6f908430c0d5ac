package cfg

import "go/token"

// Simplify collapses NoOp nodes: a NoOp with a single Sequential successor
// is spliced out, its predecessors inheriting the edge to that successor
// with their original edge kinds, and NoOps nothing leads to are dropped.
// Entry, variable scope ends and region references move to the node that
// replaces the removed one, never off the graph. It returns the number of
// removed nodes.
func Simplify(g *Graph) int {
	removed := dropOrphans(g)
	for changed := true; changed; {
		changed = false
		for _, n := range g.Nodes() {
			if n.Kind != KindNoOp {
				continue
			}
			out := g.out[n.ID]
			if len(out) != 1 || out[0].Kind != Sequential || out[0].To == n.ID {
				continue
			}
			succ := out[0].To
			for _, e := range append([]Edge(nil), g.in[n.ID]...) {
				_ = g.AddEdge(e.From, succ, e.Kind)
			}
			if n.ID == g.Entry() {
				g.setEntry(succ)
			}
			g.retarget(n.ID, succ)
			g.removeNode(n.ID)
			removed++
			changed = true
		}
	}
	return removed
}

// dropOrphans removes the NoOps nothing leads to, such as the shared exit
// of an if/else whose branches all return. References to a removed NoOp
// move to its Sequential successor when it has one, and otherwise to the
// live node closest before it in source order: the last node of the
// construct it closed.
func dropOrphans(g *Graph) int {
	removed := 0
	for _, n := range g.Nodes() {
		if !g.orphan(n) {
			continue
		}
		var repl NodeID
		if out := g.out[n.ID]; len(out) == 1 && out[0].Kind == Sequential && out[0].To != n.ID {
			repl = out[0].To
		} else {
			repl = g.precedingNode(n.ID)
		}
		g.retarget(n.ID, repl)
		g.removeNode(n.ID)
		removed++
	}
	return removed
}

func (g *Graph) orphan(n *Node) bool {
	return n.Kind == KindNoOp && len(g.in[n.ID]) == 0 && n.ID != g.Entry()
}

// precedingNode returns the live node closest before id in source order,
// falling back to the entry. Among nodes at the same position the last
// built wins.
func (g *Graph) precedingNode(id NodeID) NodeID {
	at := g.nodes[id].Pos
	best := NoNode
	for _, n := range g.Nodes() {
		if n.ID == id || g.orphan(n) || !notAfter(n.Pos, at) {
			continue
		}
		if best == NoNode || notAfter(g.nodes[best].Pos, n.Pos) {
			best = n.ID
		}
	}
	if best == NoNode {
		return g.Entry()
	}
	return best
}

func notAfter(a, b token.Position) bool {
	return a.Line < b.Line || a.Line == b.Line && a.Column <= b.Column
}

// retarget moves every reference to old onto repl.
func (g *Graph) retarget(old, repl NodeID) {
	for _, v := range g.variables {
		if v.ScopeEnd == old {
			v.ScopeEnd = repl
		}
		if v.Decl == old {
			v.Decl = repl
		}
	}
	for _, r := range g.regions {
		r.retarget(old, repl)
	}
}
