package typesys

import (
	"go/ast"
	"go/token"
	"go/types"
	"sync"
)

var predeclared = map[string]Kind{
	"bool":       Bool,
	"int":        Int,
	"int8":       Int,
	"int16":      Int,
	"int32":      Int,
	"int64":      Int,
	"rune":       Int,
	"uint":       Uint,
	"uint8":      Uint,
	"uint16":     Uint,
	"uint32":     Uint,
	"uint64":     Uint,
	"uintptr":    Uint,
	"byte":       Uint,
	"float32":    Float,
	"float64":    Float,
	"complex64":  Complex,
	"complex128": Complex,
	"string":     String,
	"error":      Interface,
	"any":        Interface,
}

// SyntacticResolver resolves type expressions without type checking. It
// knows the predeclared types and any type declarations registered through
// DeclareTypes.
type SyntacticResolver struct {
	mu    sync.RWMutex
	local map[string]*ast.TypeSpec
}

// NewSyntactic creates a resolver with no local type declarations.
func NewSyntactic() *SyntacticResolver {
	return &SyntacticResolver{local: make(map[string]*ast.TypeSpec)}
}

// DeclareTypes registers the top-level type declarations of file.
func (r *SyntacticResolver) DeclareTypes(file *ast.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				r.local[ts.Name.Name] = ts
			}
		}
	}
}

// Resolve implements Resolver.
func (r *SyntacticResolver) Resolve(expr ast.Expr) *Type {
	return r.resolve(expr, make(map[string]bool))
}

func (r *SyntacticResolver) resolve(expr ast.Expr, seen map[string]bool) *Type {
	switch e := expr.(type) {
	case nil:
		return UntypedType
	case *ast.ParenExpr:
		return r.resolve(e.X, seen)
	case *ast.Ident:
		if kind, ok := predeclared[e.Name]; ok {
			return &Type{Kind: kind, Name: e.Name, Expr: e}
		}
		t := &Type{Kind: Named, Name: e.Name, Expr: e}
		r.mu.RLock()
		spec, ok := r.local[e.Name]
		r.mu.RUnlock()
		if ok && !seen[e.Name] {
			seen[e.Name] = true
			under := r.resolve(spec.Type, seen)
			if spec.Assign.IsValid() {
				// alias
				return under
			}
			if under.Kind == Named {
				under = under.Underlying
			}
			t.Underlying = under
		}
		return t
	case *ast.SelectorExpr:
		if pkg, ok := e.X.(*ast.Ident); ok {
			return &Type{Kind: Named, Name: pkg.Name + "." + e.Sel.Name, Expr: e}
		}
	case *ast.StarExpr:
		return &Type{Kind: Pointer, Elem: r.resolve(e.X, seen), Expr: e}
	case *ast.ArrayType:
		if e.Len == nil {
			return &Type{Kind: Slice, Elem: r.resolve(e.Elt, seen), Expr: e}
		}
		return &Type{Kind: Array, Elem: r.resolve(e.Elt, seen), Expr: e}
	case *ast.MapType:
		return &Type{Kind: Map, Key: r.resolve(e.Key, seen), Elem: r.resolve(e.Value, seen), Expr: e}
	case *ast.ChanType:
		return &Type{Kind: Chan, Elem: r.resolve(e.Value, seen), Expr: e}
	case *ast.FuncType:
		return &Type{Kind: Func, Expr: e}
	case *ast.InterfaceType:
		return &Type{Kind: Interface, Expr: e}
	case *ast.StructType:
		t := &Type{Kind: Struct, Expr: e}
		for _, f := range e.Fields.List {
			ft := r.resolve(f.Type, seen)
			if len(f.Names) == 0 {
				t.Fields = append(t.Fields, Field{Type: ft})
			}
			for _, n := range f.Names {
				t.Fields = append(t.Fields, Field{Name: n.Name, Type: ft})
			}
		}
		return t
	case *ast.IndexExpr:
		// generic instantiation
		base := r.resolve(e.X, seen)
		return &Type{Kind: base.Kind, Name: base.Name, Underlying: base.Underlying, Expr: e}
	case *ast.IndexListExpr:
		base := r.resolve(e.X, seen)
		return &Type{Kind: base.Kind, Name: base.Name, Underlying: base.Underlying, Expr: e}
	case *ast.Ellipsis:
		return &Type{Kind: Slice, Elem: r.resolve(e.Elt, seen), Expr: e}
	}
	return UntypedType
}

// InfoResolver resolves type expressions through go/types information
// produced by a type-checked package load.
type InfoResolver struct {
	info     *types.Info
	fallback *SyntacticResolver
}

// NewFromInfo creates a resolver backed by info. Expressions info does not
// know are resolved syntactically.
func NewFromInfo(info *types.Info) *InfoResolver {
	return &InfoResolver{info: info, fallback: NewSyntactic()}
}

// Resolve implements Resolver.
func (r *InfoResolver) Resolve(expr ast.Expr) *Type {
	if r.info != nil && expr != nil {
		if t := r.info.TypeOf(expr); t != nil {
			out := FromGoType(t)
			out.Expr = expr
			return out
		}
	}
	return r.fallback.Resolve(expr)
}

// FromGoType converts a go/types type.
func FromGoType(t types.Type) *Type {
	return fromGoType(t, 0)
}

func fromGoType(t types.Type, depth int) *Type {
	if depth > 8 {
		return UntypedType
	}
	switch tt := t.(type) {
	case *types.Basic:
		info := tt.Info()
		switch {
		case info&types.IsBoolean != 0:
			return &Type{Kind: Bool, Name: tt.Name()}
		case info&types.IsUnsigned != 0:
			return &Type{Kind: Uint, Name: tt.Name()}
		case info&types.IsInteger != 0:
			return &Type{Kind: Int, Name: tt.Name()}
		case info&types.IsFloat != 0:
			return &Type{Kind: Float, Name: tt.Name()}
		case info&types.IsComplex != 0:
			return &Type{Kind: Complex, Name: tt.Name()}
		case info&types.IsString != 0:
			return &Type{Kind: String, Name: tt.Name()}
		case tt.Kind() == types.UntypedNil:
			return &Type{Kind: Pointer, Name: "nil"}
		}
	case *types.Named:
		name := tt.Obj().Name()
		if pkg := tt.Obj().Pkg(); pkg != nil {
			name = pkg.Name() + "." + name
		}
		if tt.Obj().Pkg() == nil && name == "error" {
			return &Type{Kind: Interface, Name: name}
		}
		return &Type{Kind: Named, Name: name, Underlying: fromGoType(tt.Underlying(), depth+1)}
	case *types.Alias:
		return fromGoType(types.Unalias(tt), depth+1)
	case *types.Pointer:
		return &Type{Kind: Pointer, Elem: fromGoType(tt.Elem(), depth+1)}
	case *types.Slice:
		return &Type{Kind: Slice, Elem: fromGoType(tt.Elem(), depth+1)}
	case *types.Array:
		return &Type{Kind: Array, Elem: fromGoType(tt.Elem(), depth+1)}
	case *types.Map:
		return &Type{Kind: Map, Key: fromGoType(tt.Key(), depth+1), Elem: fromGoType(tt.Elem(), depth+1)}
	case *types.Chan:
		return &Type{Kind: Chan, Elem: fromGoType(tt.Elem(), depth+1)}
	case *types.Signature:
		return &Type{Kind: Func}
	case *types.Interface:
		return &Type{Kind: Interface}
	case *types.Struct:
		out := &Type{Kind: Struct}
		for i := 0; i < tt.NumFields(); i++ {
			f := tt.Field(i)
			out.Fields = append(out.Fields, Field{Name: f.Name(), Type: fromGoType(f.Type(), depth+1)})
		}
		return out
	case *types.Tuple:
		out := &Type{Kind: Tuple}
		for i := 0; i < tt.Len(); i++ {
			v := tt.At(i)
			out.Fields = append(out.Fields, Field{Name: v.Name(), Type: fromGoType(v.Type(), depth+1)})
		}
		return out
	case *types.TypeParam:
		return &Type{Kind: Named, Name: tt.Obj().Name()}
	}
	return UntypedType
}
