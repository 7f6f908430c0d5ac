package cfg

import (
	"go/ast"
	"go/parser"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatisfiability_Lattice(t *testing.T) {
	all := []Satisfiability{Unknown, Satisfied, NotSatisfied}
	for _, a := range all {
		assert.Equal(t, a, a.Not().Not())
		assert.Equal(t, a, a.Lub(a))
		for _, b := range all {
			assert.Equal(t, a.And(b), b.And(a))
			assert.Equal(t, a.Or(b), b.Or(a))
			// De Morgan
			assert.Equal(t, a.And(b).Not(), a.Not().Or(b.Not()))
		}
	}
	assert.Equal(t, NotSatisfied, Unknown.And(NotSatisfied))
	assert.Equal(t, Satisfied, Unknown.Or(Satisfied))
	assert.Equal(t, Unknown, Satisfied.Lub(NotSatisfied))
	assert.Equal(t, "not_satisfied", NotSatisfied.String())
}

func constants(e ast.Expr) Satisfiability {
	if id, ok := e.(*ast.Ident); ok {
		switch id.Name {
		case "T":
			return Satisfied
		case "F":
			return NotSatisfied
		}
	}
	return Unknown
}

func TestShortCircuit(t *testing.T) {
	tests := []struct {
		expr string
		want string
		sat  Satisfiability
	}{
		{expr: "T || a", want: "T", sat: Satisfied},
		{expr: "F || a", want: "a", sat: Unknown},
		{expr: "T && a", want: "a", sat: Unknown},
		{expr: "F && a", want: "F", sat: NotSatisfied},
		{expr: "a && b", want: "a && b", sat: Unknown},
		{expr: "a || T", want: "a || T", sat: Satisfied},
		{expr: "(F || T) && a", want: "a", sat: Unknown},
		{expr: "F || (T && F)", want: "(F)", sat: NotSatisfied},
		{expr: "!T", want: "!T", sat: NotSatisfied},
		{expr: "x == 1", want: "x == 1", sat: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := parser.ParseExpr(tt.expr)
			require.NoError(t, err)
			before := types.ExprString(e)

			got, sat := shortCircuit(e, constants)
			assert.Equal(t, tt.want, types.ExprString(got))
			assert.Equal(t, tt.sat, sat)
			assert.Equal(t, before, types.ExprString(e), "input is not mutated")
		})
	}
}
