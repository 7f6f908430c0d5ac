package cfg

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

var builtins = map[string]bool{
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// prepare checks e for constructs without a lowering, builds the graphs of
// the function literals it contains and folds short-circuit operators with
// a statically known left operand.
func (b *builder) prepare(e ast.Expr) (ast.Expr, Satisfiability, error) {
	if e == nil {
		return nil, Unknown, nil
	}
	var err error
	ast.Inspect(e, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch x := n.(type) {
		case *ast.FuncLit:
			err = b.funcLit(x)
			return false
		case *ast.BadExpr:
			err = b.unsupported("malformed expression", x.Pos())
		case *ast.SelectorExpr:
			if b.isMethodExpr(x) {
				err = b.unsupported("method expression "+exprString(x), x.Pos())
			}
		}
		return err == nil
	})
	if err != nil {
		return nil, Unknown, err
	}
	folded, sat := shortCircuit(e, b.known)
	return folded, sat, nil
}

// known reports what is statically known about a boolean leaf.
func (b *builder) known(e ast.Expr) Satisfiability {
	if info := b.opts.info; info != nil {
		if tv, ok := info.Types[e]; ok && tv.Value != nil && tv.Value.Kind() == constant.Bool {
			if constant.BoolVal(tv.Value) {
				return Satisfied
			}
			return NotSatisfied
		}
	}
	id, ok := e.(*ast.Ident)
	if !ok {
		return Unknown
	}
	if _, shadowed := b.scope.Lookup(id.Name); shadowed {
		return Unknown
	}
	switch id.Name {
	case "true":
		return Satisfied
	case "false":
		return NotSatisfied
	}
	return Unknown
}

// isMethodExpr reports whether sel names a method through its type, as in
// T.M or (*T).M.
func (b *builder) isMethodExpr(sel *ast.SelectorExpr) bool {
	if info := b.opts.info; info != nil {
		if s, ok := info.Selections[sel]; ok {
			return s.Kind() == types.MethodExpr
		}
	}
	switch x := ast.Unparen(sel.X).(type) {
	case *ast.StarExpr:
		_, paren := sel.X.(*ast.ParenExpr)
		return paren
	case *ast.Ident:
		if _, local := b.scope.Lookup(x.Name); local {
			return false
		}
		if _, pkg := b.opts.imports[x.Name]; pkg {
			return false
		}
		if b.opts.info != nil {
			_, isType := b.opts.info.Uses[x].(*types.TypeName)
			return isType
		}
		t := b.opts.resolver.Resolve(x)
		return t != nil && t.Kind == typesys.Named && t.Underlying != nil
	}
	return false
}

// funcLit builds the graph of a function literal and registers it under a
// fresh anonymousFunction<N> name.
func (b *builder) funcLit(lit *ast.FuncLit) error {
	name := fmt.Sprintf("anonymousFunction%d", *b.anon)
	*b.anon++
	b.anonName[lit] = name
	g, err := build(b.fset, name, nil, lit.Type, lit.Body, b.opts, b.anon)
	if err != nil {
		return err
	}
	b.g.anonymous = append(b.g.anonymous, g)
	return nil
}

func (b *builder) resolveType(e ast.Expr) *typesys.Type {
	if e == nil {
		return nil
	}
	return b.opts.resolver.Resolve(e)
}

// isIntegerExpr reports whether e evaluates to an integer, as ranging over
// an int does.
func (b *builder) isIntegerExpr(e ast.Expr) bool {
	if lit, ok := ast.Unparen(e).(*ast.BasicLit); ok {
		return lit.Kind == token.INT
	}
	if b.opts.info != nil {
		if t := b.opts.info.TypeOf(e); t != nil {
			return typesys.IsInteger(typesys.FromGoType(t))
		}
	}
	return false
}

// isImport reports whether id refers to an imported package.
func (b *builder) isImport(id *ast.Ident) (string, bool) {
	if info := b.opts.info; info != nil {
		if pn, ok := info.Uses[id].(*types.PkgName); ok {
			return pn.Imported().Path(), true
		}
	}
	if _, local := b.scope.Lookup(id.Name); local {
		return "", false
	}
	p, ok := b.opts.imports[id.Name]
	return p, ok
}

func (b *builder) isBuiltin(id *ast.Ident) bool {
	if info := b.opts.info; info != nil {
		if obj, ok := info.Uses[id]; ok {
			_, builtin := obj.(*types.Builtin)
			return builtin
		}
	}
	if _, local := b.scope.Lookup(id.Name); local {
		return false
	}
	return builtins[id.Name]
}

// classifyCall resolves the callee of call.
func (b *builder) classifyCall(call *ast.CallExpr) *Call {
	c := &Call{Kind: CallDynamic, Args: call.Args, Expr: call}
	arity := len(call.Args)
	switch fn := ast.Unparen(call.Fun).(type) {
	case *ast.FuncLit:
		c.Kind = CallAnonymous
		c.Name = b.anonName[fn]
	case *ast.Ident:
		c.Name = fn.Name
		c.Kind = CallStatic
		if b.isBuiltin(fn) {
			c.Kind = CallBuiltin
		}
	case *ast.IndexExpr:
		if id, ok := fn.X.(*ast.Ident); ok {
			c.Kind, c.Name = CallStatic, id.Name
		}
	case *ast.IndexListExpr:
		if id, ok := fn.X.(*ast.Ident); ok {
			c.Kind, c.Name = CallStatic, id.Name
		}
	case *ast.SelectorExpr:
		c.Name = fn.Sel.Name
		if id, ok := fn.X.(*ast.Ident); ok {
			if pkg, ok := b.isImport(id); ok {
				c.Kind, c.Package = CallQualified, pkg
				if stub, ok := b.opts.stubs.Lookup(pkg, fn.Sel.Name, arity); ok {
					c.Kind, c.Stub = CallNative, stub
				}
				return c
			}
		}
		c.Kind = CallInstance
		c.Receiver = fn.X
		c.Args = append([]ast.Expr{fn.X}, call.Args...)
		if pkg, typeName, ok := b.receiverType(fn); ok {
			if stub, ok := b.opts.stubs.Lookup(pkg, typeName+"."+fn.Sel.Name, arity+1); ok {
				c.Kind, c.Package, c.Stub = CallNative, pkg, stub
			}
		}
	}
	return c
}

// receiverType returns the package and name of the named type whose method
// sel selects. It needs type information.
func (b *builder) receiverType(sel *ast.SelectorExpr) (string, string, bool) {
	if b.opts.info == nil {
		return "", "", false
	}
	s, ok := b.opts.info.Selections[sel]
	if !ok || s.Kind() != types.MethodVal {
		return "", "", false
	}
	recv := s.Recv()
	if p, ok := recv.(*types.Pointer); ok {
		recv = p.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return "", "", false
	}
	return named.Obj().Pkg().Path(), named.Obj().Name(), true
}

// callNodeKind picks the node kind of a call statement.
func callNodeKind(c *Call) NodeKind {
	switch {
	case c.Kind == CallBuiltin && c.Name == "panic":
		return KindPanic
	case c.Stub != nil && c.Stub.Terminates:
		return KindExit
	}
	return KindCall
}
