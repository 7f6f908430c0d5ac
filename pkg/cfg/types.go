// Package cfg builds control flow graphs of Go function bodies.
//
// Each function or method body is lowered statement by statement into a
// Graph of typed nodes joined by Sequential, True and False edges. The
// graph has one entry, every path ends in a node that stops execution, and
// a variable table records where each local variable is declared and where
// its scope ends. CFGInfo is the serializable view of a Graph.
package cfg

// NodeInfo is the exported form of a Node.
type NodeInfo struct {
	ID        int      `json:"id" msgpack:"id"`
	Kind      string   `json:"kind" msgpack:"kind"`
	Text      string   `json:"text" msgpack:"text"`
	Line      int      `json:"line" msgpack:"line"`
	Column    int      `json:"column,omitempty" msgpack:"column,omitempty"`
	Stops     bool     `json:"stops_execution,omitempty" msgpack:"stops,omitempty"`
	Synthetic bool     `json:"synthetic,omitempty" msgpack:"synthetic,omitempty"`
	Call      string   `json:"call,omitempty" msgpack:"call,omitempty"`
	CallKind  string   `json:"call_kind,omitempty" msgpack:"call_kind,omitempty"`
	Label     string   `json:"label,omitempty" msgpack:"label,omitempty"`
	Sat       string   `json:"satisfiability,omitempty" msgpack:"sat,omitempty"`
	Visible   []string `json:"visible,omitempty" msgpack:"visible,omitempty"`
}

// EdgeInfo is the exported form of an Edge.
type EdgeInfo struct {
	From int    `json:"from" msgpack:"from"`
	To   int    `json:"to" msgpack:"to"`
	Kind string `json:"kind" msgpack:"kind"`
}

// VariableInfo is one row of the variable table.
type VariableInfo struct {
	Name     string `json:"name" msgpack:"name"`
	Kind     string `json:"kind" msgpack:"kind"`
	Decl     int    `json:"decl" msgpack:"decl"`
	ScopeEnd int    `json:"scope_end" msgpack:"scope_end"`
	Depth    int    `json:"depth" msgpack:"depth"`
}

// RegionInfo is the exported form of a Region.
type RegionInfo struct {
	Kind      string `json:"kind" msgpack:"kind"`
	Condition int    `json:"condition" msgpack:"condition"`
	Exit      int    `json:"exit" msgpack:"exit"`
	Nodes     []int  `json:"nodes" msgpack:"nodes"`
	Then      []int  `json:"then,omitempty" msgpack:"then,omitempty"`
	Else      []int  `json:"else,omitempty" msgpack:"else,omitempty"`
}

// ParamInfo is a parameter with its rendered type.
type ParamInfo struct {
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	Type string `json:"type" msgpack:"type"`
}

// CFGInfo represents the complete control flow graph of a function.
type CFGInfo struct {
	FunctionName         string         `json:"function_name" msgpack:"function_name"`
	Receiver             string         `json:"receiver,omitempty" msgpack:"receiver,omitempty"`
	File                 string         `json:"file,omitempty" msgpack:"file,omitempty"`
	Params               []ParamInfo    `json:"params,omitempty" msgpack:"params,omitempty"`
	ResultShape          string         `json:"result_shape" msgpack:"result_shape"`
	Results              []string       `json:"results,omitempty" msgpack:"results,omitempty"`
	Nodes                []NodeInfo     `json:"nodes" msgpack:"nodes"`
	Edges                []EdgeInfo     `json:"edges" msgpack:"edges"`
	Entry                int            `json:"entry" msgpack:"entry"`
	Exits                []int          `json:"exits" msgpack:"exits"`
	Variables            []VariableInfo `json:"variables,omitempty" msgpack:"variables,omitempty"`
	Regions              []RegionInfo   `json:"regions,omitempty" msgpack:"regions,omitempty"`
	Deferred             []int          `json:"deferred,omitempty" msgpack:"deferred,omitempty"`
	Anonymous            []*CFGInfo     `json:"anonymous,omitempty" msgpack:"anonymous,omitempty"`
	CyclomaticComplexity int            `json:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`
}
