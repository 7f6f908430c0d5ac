package cfg

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

// EdgeKind is the type of a control transfer.
type EdgeKind int

const (
	Sequential EdgeKind = iota
	True
	False
)

func (k EdgeKind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Edge is a directed, typed connection between two nodes of the same graph.
type Edge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// Param is a formal parameter. A method's receiver is the first Param.
type Param struct {
	Name string
	Type *typesys.Type
}

// Variable is one entry of the variable table: a declared name, the node
// declaring it and the node after which it is no longer visible.
type Variable struct {
	Name     string
	Kind     DeclKind
	Decl     NodeID
	ScopeEnd NodeID
	Depth    int
}

// Graph is the control flow graph of one function or method body.
type Graph struct {
	Name     string
	Receiver string // receiver type for methods, empty for functions
	Params   []Param
	Results  typesys.Shape

	nodes []*Node // indexed by NodeID; removed nodes are nil
	out   map[NodeID][]Edge
	in    map[NodeID][]Edge
	live  int

	entries   []NodeID
	variables []*Variable
	regions   []*Region
	visible   map[NodeID][]string
	deferred  []NodeID
	anonymous []*Graph
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:    name,
		out:     make(map[NodeID][]Edge),
		in:      make(map[NodeID][]Edge),
		visible: make(map[NodeID][]string),
	}
}

// AddNode takes ownership of n and assigns its ID.
func (g *Graph) AddNode(n *Node) NodeID {
	n.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.live++
	return n.ID
}

func (g *Graph) has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && g.nodes[id] != nil
}

// AddEdge connects two nodes already added to g. Adding an edge that
// already exists is a no-op.
func (g *Graph) AddEdge(from, to NodeID, kind EdgeKind) error {
	if !g.has(from) {
		return fmt.Errorf("edge source %d: %w", from, ErrUnknownNode)
	}
	if !g.has(to) {
		return fmt.Errorf("edge target %d: %w", to, ErrUnknownNode)
	}
	e := Edge{From: from, To: to, Kind: kind}
	for _, existing := range g.out[from] {
		if existing == e {
			return nil
		}
	}
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	return nil
}

// removeEdge deletes e if present.
func (g *Graph) removeEdge(e Edge) {
	g.out[e.From] = without(g.out[e.From], e)
	g.in[e.To] = without(g.in[e.To], e)
}

func without(edges []Edge, e Edge) []Edge {
	out := edges[:0]
	for _, x := range edges {
		if x != e {
			out = append(out, x)
		}
	}
	return out
}

// removeNode deletes id and every edge touching it.
func (g *Graph) removeNode(id NodeID) {
	for _, e := range append([]Edge(nil), g.out[id]...) {
		g.removeEdge(e)
	}
	for _, e := range append([]Edge(nil), g.in[id]...) {
		g.removeEdge(e)
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.visible, id)
	g.nodes[id] = nil
	g.live--
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if !g.has(id) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns all nodes in ID order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, g.live)
	for _, n := range g.nodes {
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.live
}

// Edges returns all edges ordered by source, then insertion.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.Nodes() {
		edges = append(edges, g.out[n.ID]...)
	}
	return edges
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, edges := range g.out {
		count += len(edges)
	}
	return count
}

// Outgoing returns the edges leaving id.
func (g *Graph) Outgoing(id NodeID) []Edge {
	return append([]Edge(nil), g.out[id]...)
}

// Incoming returns the edges entering id.
func (g *Graph) Incoming(id NodeID) []Edge {
	return append([]Edge(nil), g.in[id]...)
}

// Successors returns the targets of id's outgoing edges.
func (g *Graph) Successors(id NodeID) []NodeID {
	var succs []NodeID
	for _, e := range g.out[id] {
		succs = appendUnique(succs, e.To)
	}
	return succs
}

// Predecessors returns the sources of id's incoming edges.
func (g *Graph) Predecessors(id NodeID) []NodeID {
	var preds []NodeID
	for _, e := range g.in[id] {
		preds = appendUnique(preds, e.From)
	}
	return preds
}

func appendUnique(ids []NodeID, id NodeID) []NodeID {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// Entry returns the single entry node of a finished function graph.
func (g *Graph) Entry() NodeID {
	if len(g.entries) == 0 {
		return NoNode
	}
	return g.entries[0]
}

// Entries returns every entry node.
func (g *Graph) Entries() []NodeID {
	return append([]NodeID(nil), g.entries...)
}

func (g *Graph) setEntry(id NodeID) {
	g.entries = []NodeID{id}
}

// Exits returns the nodes with no outgoing edges.
func (g *Graph) Exits() []NodeID {
	var exits []NodeID
	for _, n := range g.Nodes() {
		if len(g.out[n.ID]) == 0 {
			exits = append(exits, n.ID)
		}
	}
	return exits
}

// Reachable returns the set of nodes reachable from the entry.
func (g *Graph) Reachable() map[NodeID]bool {
	seen := make(map[NodeID]bool)
	stack := g.Entries()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == NoNode || seen[id] {
			continue
		}
		seen[id] = true
		for _, e := range g.out[id] {
			stack = append(stack, e.To)
		}
	}
	return seen
}

// Variables returns the variable table in declaration order.
func (g *Graph) Variables() []*Variable {
	return append([]*Variable(nil), g.variables...)
}

// Regions returns the structured-region index.
func (g *Graph) Regions() []*Region {
	return append([]*Region(nil), g.regions...)
}

// RegionsOf returns the regions of the given kind.
func (g *Graph) RegionsOf(kind RegionKind) []*Region {
	var out []*Region
	for _, r := range g.regions {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// VisibleIDs returns the identifiers in scope when id executes.
func (g *Graph) VisibleIDs(id NodeID) []string {
	return append([]string(nil), g.visible[id]...)
}

func (g *Graph) setVisible(id NodeID, names []string) {
	if len(names) == 0 {
		return
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	g.visible[id] = sorted
}

// Deferred returns the defer nodes in the order they were registered.
func (g *Graph) Deferred() []NodeID {
	return append([]NodeID(nil), g.deferred...)
}

// Anonymous returns the graphs of function literals found in the body.
func (g *Graph) Anonymous() []*Graph {
	return append([]*Graph(nil), g.anonymous...)
}
