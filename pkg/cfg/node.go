package cfg

import (
	"go/ast"
	"go/token"

	"github.com/l3aro/go-cfg-builder/pkg/native"
)

// NodeID identifies a node inside one Graph.
type NodeID int

// NoNode is the zero reference.
const NoNode NodeID = -1

// NodeKind is the variant tag of a Node.
type NodeKind int

const (
	KindNoOp NodeKind = iota
	KindOpenBlock
	KindCloseBlock
	KindAssignment
	KindVariableDeclaration
	KindMultiDeclaration
	KindReturn
	KindRet // synthetic return
	KindCondition
	KindLoopGuard
	KindCall
	KindExpression
	KindSend
	KindGoto
	KindFallthrough
	KindBreak
	KindContinue
	KindDefer
	KindGo
	KindPanic
	KindExit // call of a native function that never returns
	KindTypeDecl
)

var nodeKindNames = [...]string{
	KindNoOp:                "noop",
	KindOpenBlock:           "open_block",
	KindCloseBlock:          "close_block",
	KindAssignment:          "assignment",
	KindVariableDeclaration: "variable_declaration",
	KindMultiDeclaration:    "multi_declaration",
	KindReturn:              "return",
	KindRet:                 "ret",
	KindCondition:           "condition",
	KindLoopGuard:           "loop_guard",
	KindCall:                "call",
	KindExpression:          "expression",
	KindSend:                "send",
	KindGoto:                "goto",
	KindFallthrough:         "fallthrough",
	KindBreak:               "break",
	KindContinue:            "continue",
	KindDefer:               "defer",
	KindGo:                  "go",
	KindPanic:               "panic",
	KindExit:                "exit",
	KindTypeDecl:            "type_declaration",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// StopsExecution reports whether control never continues past a node of
// kind k. Such nodes receive no automatic outgoing edges.
func StopsExecution(k NodeKind) bool {
	switch k {
	case KindReturn, KindRet, KindGoto, KindPanic, KindExit:
		return true
	}
	return false
}

// Jumps reports whether a node of kind k transfers control to an explicit
// target (an enclosing loop or switch) instead of its textual successor.
func Jumps(k NodeKind) bool {
	return k == KindBreak || k == KindContinue
}

// terminates reports whether sequencing must not add an edge after k.
func terminates(k NodeKind) bool {
	return StopsExecution(k) || Jumps(k)
}

// CallKind classifies the callee of a call node.
type CallKind int

const (
	CallStatic    CallKind = iota // unqualified function name
	CallQualified                 // pkg.F of an imported package
	CallNative                    // resolved through the stub registry
	CallInstance                  // x.m(...), receiver passed first
	CallBuiltin                   // len, make, append, ...
	CallAnonymous                 // function literal
	CallDynamic                   // any other callee expression
)

var callKindNames = [...]string{
	CallStatic:    "static",
	CallQualified: "qualified",
	CallNative:    "native",
	CallInstance:  "instance",
	CallBuiltin:   "builtin",
	CallAnonymous: "anonymous",
	CallDynamic:   "dynamic",
}

func (k CallKind) String() string {
	if k >= 0 && int(k) < len(callKindNames) {
		return callKindNames[k]
	}
	return "unknown"
}

// Call describes the call evaluated by a node.
type Call struct {
	Kind     CallKind
	Package  string // import path, for qualified and native calls
	Name     string // callee name; anonymousFunction<N> for literals
	Receiver ast.Expr
	Args     []ast.Expr
	Stub     *native.Stub
	Expr     *ast.CallExpr
}

// Node is a statement or expression of the function body.
type Node struct {
	ID   NodeID
	Kind NodeKind
	Pos  token.Position
	Text string

	// Syntax is the statement or expression the node was built from. It is
	// nil for synthetic nodes.
	Syntax ast.Node

	// Expr is the evaluated expression: a guard, an assigned value, or a
	// called expression.
	Expr ast.Expr

	Targets []ast.Expr // assignment and declaration targets
	Values  []ast.Expr // assignment and declaration values, aligned with Targets when counts match
	Results []ast.Expr // returned values
	Tok     token.Token
	Decl    DeclKind
	Label   string
	Call    *Call
	Sat     Satisfiability

	Synthetic bool
}

// StopsExecution reports whether n ends the function's execution path.
func (n *Node) StopsExecution() bool {
	return StopsExecution(n.Kind)
}

func (n *Node) String() string {
	return n.Text
}
