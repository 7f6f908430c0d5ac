// Package typesys resolves Go type expressions into the small semantic type
// model the CFG builder needs: default values for declarations and the shape
// of a function's results.
package typesys

import (
	"go/ast"
	"go/token"
	"strings"
)

// Kind classifies a resolved type.
type Kind int

const (
	Untyped Kind = iota
	Bool
	Int
	Uint
	Float
	Complex
	String
	Pointer
	Slice
	Array
	Map
	Chan
	Func
	Interface
	Struct
	Named
	Tuple
)

var kindNames = map[Kind]string{
	Untyped:   "untyped",
	Bool:      "bool",
	Int:       "int",
	Uint:      "uint",
	Float:     "float",
	Complex:   "complex",
	String:    "string",
	Pointer:   "pointer",
	Slice:     "slice",
	Array:     "array",
	Map:       "map",
	Chan:      "chan",
	Func:      "func",
	Interface: "interface",
	Struct:    "struct",
	Named:     "named",
	Tuple:     "tuple",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Field is one element of a tuple or struct type.
type Field struct {
	Name string `json:"name,omitempty"`
	Type *Type  `json:"type"`
}

// Type is a resolved semantic type.
type Type struct {
	Kind   Kind    `json:"kind"`
	Name   string  `json:"name,omitempty"` // spelled type name, e.g. "int64" or "pkg.T"
	Elem   *Type   `json:"elem,omitempty"`
	Key    *Type   `json:"key,omitempty"`
	Fields []Field `json:"fields,omitempty"`

	// Underlying is set for Named types whose definition is known.
	Underlying *Type `json:"underlying,omitempty"`

	// Expr is the type expression t was resolved from, when there is one.
	Expr ast.Expr `json:"-"`
}

// UntypedType is returned when nothing is known about an expression.
var UntypedType = &Type{Kind: Untyped}

// IsTuple reports whether t is a tuple of results.
func (t *Type) IsTuple() bool {
	return t != nil && t.Kind == Tuple
}

// IsInteger reports whether t is a signed or unsigned integer type.
func IsInteger(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Kind == Named && t.Underlying != nil {
		return IsInteger(t.Underlying)
	}
	return t.Kind == Int || t.Kind == Uint
}

func (t *Type) String() string {
	if t == nil {
		return UntypedType.String()
	}
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case Pointer:
		return "*" + t.Elem.String()
	case Slice:
		return "[]" + t.Elem.String()
	case Map:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case Chan:
		return "chan " + t.Elem.String()
	case Tuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			if f.Name != "" {
				parts[i] = f.Name + " " + f.Type.String()
			} else {
				parts[i] = f.Type.String()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return t.Kind.String()
}

// Zero returns the expression of t's zero value, or nil when t is untyped
// and no default can be chosen.
func (t *Type) Zero() ast.Expr {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case Bool:
		return ast.NewIdent("false")
	case Int, Uint:
		return &ast.BasicLit{Kind: token.INT, Value: "0"}
	case Float:
		return &ast.BasicLit{Kind: token.FLOAT, Value: "0.0"}
	case Complex:
		return &ast.BasicLit{Kind: token.IMAG, Value: "0i"}
	case String:
		return &ast.BasicLit{Kind: token.STRING, Value: `""`}
	case Pointer, Slice, Map, Chan, Func, Interface:
		return ast.NewIdent("nil")
	case Named:
		if t.Underlying == nil {
			return nil
		}
		switch t.Underlying.Kind {
		case Struct, Array, Named:
			if t.Expr != nil {
				return &ast.CompositeLit{Type: t.Expr}
			}
			return &ast.CompositeLit{Type: typeExpr(t.Name)}
		}
		return t.Underlying.Zero()
	case Struct, Array:
		if t.Expr != nil {
			return &ast.CompositeLit{Type: t.Expr}
		}
		if t.Name != "" {
			return &ast.CompositeLit{Type: typeExpr(t.Name)}
		}
		return &ast.CompositeLit{Type: ast.NewIdent(t.Kind.String())}
	}
	return nil
}

// typeExpr turns a spelled type name into an identifier or selector.
func typeExpr(name string) ast.Expr {
	if pkg, sel, ok := strings.Cut(name, "."); ok {
		return &ast.SelectorExpr{X: ast.NewIdent(pkg), Sel: ast.NewIdent(sel)}
	}
	return ast.NewIdent(name)
}

// Resolver maps a type expression to a semantic type.
type Resolver interface {
	Resolve(expr ast.Expr) *Type
}
