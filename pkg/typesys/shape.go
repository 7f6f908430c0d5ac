package typesys

import "go/ast"

// ShapeKind describes how a function returns its results.
type ShapeKind int

const (
	Void ShapeKind = iota
	Single
	TupleShape
	NamedTuple
)

func (k ShapeKind) String() string {
	switch k {
	case Void:
		return "void"
	case Single:
		return "single"
	case TupleShape:
		return "tuple"
	case NamedTuple:
		return "named-tuple"
	default:
		return "unknown"
	}
}

// Shape is the resolved result list of a function.
type Shape struct {
	Kind ShapeKind
	Type *Type // Single: the result type; tuples: a Tuple type
}

// Names returns the result names of a named tuple, in declaration order.
func (s Shape) Names() []string {
	if s.Kind != NamedTuple || s.Type == nil {
		return nil
	}
	names := make([]string, 0, len(s.Type.Fields))
	for _, f := range s.Type.Fields {
		names = append(names, f.Name)
	}
	return names
}

// ResultShape resolves a function's result list.
func ResultShape(results *ast.FieldList, r Resolver) Shape {
	if results == nil || len(results.List) == 0 {
		return Shape{Kind: Void}
	}
	tuple := &Type{Kind: Tuple}
	named := false
	for _, field := range results.List {
		ft := r.Resolve(field.Type)
		if len(field.Names) == 0 {
			tuple.Fields = append(tuple.Fields, Field{Type: ft})
			continue
		}
		named = true
		for _, n := range field.Names {
			tuple.Fields = append(tuple.Fields, Field{Name: n.Name, Type: ft})
		}
	}
	switch {
	case named:
		return Shape{Kind: NamedTuple, Type: tuple}
	case len(tuple.Fields) == 1:
		return Shape{Kind: Single, Type: tuple.Fields[0].Type}
	default:
		return Shape{Kind: TupleShape, Type: tuple}
	}
}
