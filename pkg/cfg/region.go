package cfg

// RegionKind is the kind of a structured control region.
type RegionKind int

const (
	RegionLoop RegionKind = iota
	RegionIfThenElse
	RegionSwitch
	RegionSwitchCase
)

func (k RegionKind) String() string {
	switch k {
	case RegionLoop:
		return "loop"
	case RegionIfThenElse:
		return "if_then_else"
	case RegionSwitch:
		return "switch"
	case RegionSwitchCase:
		return "switch_case"
	default:
		return "unknown"
	}
}

// Region indexes the nodes of one structured construct. It references
// nodes of the owning graph and never owns them.
type Region struct {
	Kind      RegionKind
	Condition NodeID   // guard, or the first node of a switch
	Exit      NodeID   // shared exit
	Nodes     []NodeID // every node inside the region
	Then      []NodeID // IfThenElse: nodes of the true branch
	Else      []NodeID // IfThenElse: nodes of the false branch
}

// Contains reports whether id lies inside the region.
func (r *Region) Contains(id NodeID) bool {
	if id == r.Condition {
		return true
	}
	for _, n := range r.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// retarget moves the condition or exit from a removed node old onto its
// successor repl. Membership lists simply drop old.
func (r *Region) retarget(old, repl NodeID) {
	if r.Condition == old {
		r.Condition = repl
	}
	if r.Exit == old {
		r.Exit = repl
	}
	r.Nodes = removeID(r.Nodes, old)
	r.Then = removeID(r.Then, old)
	r.Else = removeID(r.Else, old)
}

func removeID(ids []NodeID, old NodeID) []NodeID {
	out := ids[:0]
	for _, id := range ids {
		if id != old {
			out = append(out, id)
		}
	}
	return out
}
