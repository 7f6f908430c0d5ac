package cfg

// Fragment is a piece of the body under construction: the nodes built for
// one statement or expression, entered through Entry and left through Last.
// Nodes and edges live in the graph being built; a fragment only records
// which of them it spans.
type Fragment struct {
	Entry NodeID
	Last  NodeID
	nodes []NodeID
}

// Singleton returns the fragment made of node id alone.
func Singleton(id NodeID) Fragment {
	return Fragment{Entry: id, Last: id, nodes: []NodeID{id}}
}

// Empty reports whether f holds no node.
func (f Fragment) Empty() bool {
	return len(f.nodes) == 0
}

// Nodes returns the nodes spanned by f.
func (f Fragment) Nodes() []NodeID {
	return append([]NodeID(nil), f.nodes...)
}

// Merge folds other's nodes into f without changing f's entry or last node.
func (f *Fragment) Merge(other Fragment) {
	f.nodes = append(f.nodes, other.nodes...)
}

// include adds single nodes to f.
func (f *Fragment) include(ids ...NodeID) {
	f.nodes = append(f.nodes, ids...)
}

// sequence joins a and b with a Sequential edge from a.Last to b.Entry. No
// edge is added when a.Last stops execution or jumps elsewhere; such nodes
// are wired explicitly by their lowerers. An empty operand yields the other.
func (b *builder) sequence(first, second Fragment) (Fragment, error) {
	if first.Empty() {
		return second, nil
	}
	if second.Empty() {
		return first, nil
	}
	if !terminates(b.g.Node(first.Last).Kind) {
		if err := b.connect(first.Last, second.Entry, Sequential); err != nil {
			return Fragment{}, err
		}
	}
	out := Fragment{Entry: first.Entry, Last: second.Last}
	out.nodes = make([]NodeID, 0, len(first.nodes)+len(second.nodes))
	out.nodes = append(out.nodes, first.nodes...)
	out.nodes = append(out.nodes, second.nodes...)
	return out, nil
}

// chain sequences fragments in order.
func (b *builder) chain(frags ...Fragment) (Fragment, error) {
	var out Fragment
	for _, f := range frags {
		var err error
		if out, err = b.sequence(out, f); err != nil {
			return Fragment{}, err
		}
	}
	return out, nil
}
