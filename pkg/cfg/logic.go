package cfg

import (
	"go/ast"
	"go/token"
)

// Satisfiability is what is statically known about a boolean expression.
type Satisfiability int

const (
	Unknown Satisfiability = iota
	Satisfied
	NotSatisfied
)

func (s Satisfiability) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case NotSatisfied:
		return "not_satisfied"
	default:
		return "unknown"
	}
}

// Not negates s.
func (s Satisfiability) Not() Satisfiability {
	switch s {
	case Satisfied:
		return NotSatisfied
	case NotSatisfied:
		return Satisfied
	}
	return Unknown
}

// And is three-valued conjunction.
func (s Satisfiability) And(other Satisfiability) Satisfiability {
	switch {
	case s == NotSatisfied || other == NotSatisfied:
		return NotSatisfied
	case s == Satisfied && other == Satisfied:
		return Satisfied
	}
	return Unknown
}

// Or is three-valued disjunction.
func (s Satisfiability) Or(other Satisfiability) Satisfiability {
	switch {
	case s == Satisfied || other == Satisfied:
		return Satisfied
	case s == NotSatisfied && other == NotSatisfied:
		return NotSatisfied
	}
	return Unknown
}

// Lub joins two facts: equal facts are kept, anything else is Unknown.
func (s Satisfiability) Lub(other Satisfiability) Satisfiability {
	if s == other {
		return s
	}
	return Unknown
}

// shortCircuit folds && and || whose left operand is statically known.
// A known left operand keeps only the branch that is evaluated: for ||, a
// satisfied left side is the whole result and an unsatisfied one yields the
// right side alone; && is the dual. Unknown left operands keep both sides.
// known reports the satisfiability of a leaf expression. The input tree is
// never mutated; rewritten nodes are fresh copies.
func shortCircuit(e ast.Expr, known func(ast.Expr) Satisfiability) (ast.Expr, Satisfiability) {
	switch x := e.(type) {
	case *ast.ParenExpr:
		inner, sat := shortCircuit(x.X, known)
		if inner == x.X {
			return x, sat
		}
		return &ast.ParenExpr{Lparen: x.Lparen, X: inner, Rparen: x.Rparen}, sat
	case *ast.UnaryExpr:
		if x.Op != token.NOT {
			break
		}
		inner, sat := shortCircuit(x.X, known)
		if inner == x.X {
			return x, sat.Not()
		}
		return &ast.UnaryExpr{OpPos: x.OpPos, Op: x.Op, X: inner}, sat.Not()
	case *ast.BinaryExpr:
		if x.Op != token.LOR && x.Op != token.LAND {
			break
		}
		left, ls := shortCircuit(x.X, known)
		switch {
		case x.Op == token.LOR && ls == Satisfied:
			return left, Satisfied
		case x.Op == token.LOR && ls == NotSatisfied:
			return shortCircuit(x.Y, known)
		case x.Op == token.LAND && ls == NotSatisfied:
			return left, NotSatisfied
		case x.Op == token.LAND && ls == Satisfied:
			return shortCircuit(x.Y, known)
		}
		right, rs := shortCircuit(x.Y, known)
		sat := ls.And(rs)
		if x.Op == token.LOR {
			sat = ls.Or(rs)
		}
		if left == x.X && right == x.Y {
			return x, sat
		}
		return &ast.BinaryExpr{X: left, OpPos: x.OpPos, Op: x.Op, Y: right}, sat
	}
	return e, known(e)
}
