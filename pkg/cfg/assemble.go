package cfg

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

// FuncName returns the name a function declaration is known by: Name for
// functions and Type.Name for methods.
func FuncName(fn *ast.FuncDecl) string {
	recv := ReceiverType(fn)
	if recv == "" {
		return fn.Name.Name
	}
	if recv[0] == '*' {
		recv = recv[1:]
	}
	return recv + "." + fn.Name.Name
}

// ReceiverType renders the receiver type of a method, or "" for functions.
func ReceiverType(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	t := fn.Recv.List[0].Type
	switch x := t.(type) {
	case *ast.IndexExpr:
		t = x.X
	case *ast.IndexListExpr:
		t = x.X
	case *ast.StarExpr:
		switch y := x.X.(type) {
		case *ast.IndexExpr:
			t = &ast.StarExpr{X: y.X}
		case *ast.IndexListExpr:
			t = &ast.StarExpr{X: y.X}
		}
	}
	return exprString(t)
}

// BuildFunc builds the control flow graph of a function or method
// declaration. The result has exactly one entry, and every path ends in a
// node that stops execution.
func BuildFunc(fset *token.FileSet, fn *ast.FuncDecl, opts ...Option) (*Graph, error) {
	o := newOptions(opts)
	name := FuncName(fn)
	anon := 0
	g, err := build(fset, name, fn.Recv, fn.Type, fn.Body, o, &anon)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	g.Receiver = ReceiverType(fn)
	return g, nil
}

// BuildFuncLit builds the graph of a function literal under the given name.
func BuildFuncLit(fset *token.FileSet, lit *ast.FuncLit, name string, opts ...Option) (*Graph, error) {
	o := newOptions(opts)
	anon := 0
	g, err := build(fset, name, nil, lit.Type, lit.Body, o, &anon)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	return g, nil
}

// build lowers one body. Receiver and parameters are declared in the
// outermost block; named results are declared with their zero values ahead
// of the body.
func build(fset *token.FileSet, name string, recv *ast.FieldList, ftype *ast.FuncType, body *ast.BlockStmt, o *options, anon *int) (*Graph, error) {
	b := newBuilder(fset, name, o, anon)
	o.logger.Debug("building graph", "function", name)

	b.scope.OpenBlock(NoNode)
	if err := b.params(recv); err != nil {
		return nil, err
	}
	if err := b.params(ftype.Params); err != nil {
		return nil, err
	}
	b.results = typesys.ResultShape(ftype.Results, o.resolver)
	b.g.Results = b.results

	frag, err := b.namedResults(ftype.Results)
	if err != nil {
		return nil, err
	}
	end := ftype.End()
	if body != nil {
		end = body.Rbrace
		if len(body.List) > 0 {
			list, err := b.stmtList(body.List, body.Lbrace)
			if err != nil {
				return nil, err
			}
			if frag, err = b.sequence(frag, list); err != nil {
				return nil, err
			}
		}
	}
	if !frag.Empty() {
		b.scope.Block(0).Open = frag.Entry
		b.scope.CloseBlock(0, frag.Last)
		b.g.setEntry(frag.Entry)
	}

	if err := b.resolveGotos(); err != nil {
		return nil, err
	}
	if err := b.insertRet(end); err != nil {
		return nil, err
	}
	b.g.variables = b.scope.Variables()

	removed := dropOrphans(b.g)
	if o.simplify {
		removed += Simplify(b.g)
	}
	o.logger.Debug("built graph",
		"function", name,
		"nodes", b.g.NodeCount(),
		"edges", b.g.EdgeCount(),
		"gotos", len(b.gotos),
		"simplified", removed,
		"anonymous", len(b.g.anonymous),
	)
	return b.g, nil
}

func (b *builder) params(list *ast.FieldList) error {
	if list == nil {
		return nil
	}
	for _, field := range list.List {
		t := b.resolveType(field.Type)
		if len(field.Names) == 0 {
			b.g.Params = append(b.g.Params, Param{Type: t})
			continue
		}
		for _, n := range field.Names {
			b.g.Params = append(b.g.Params, Param{Name: n.Name, Type: t})
			if err := b.scope.Declare(n.Name, DeclParameter, 0, NoNode); err != nil {
				return b.locate(err, n.Pos())
			}
		}
	}
	return nil
}

// namedResults declares each named result with its zero value.
func (b *builder) namedResults(results *ast.FieldList) (Fragment, error) {
	var out Fragment
	if results == nil {
		return out, nil
	}
	for _, field := range results.List {
		t := b.resolveType(field.Type)
		for _, n := range field.Names {
			if n.Name == "_" {
				continue
			}
			node := &Node{
				Kind:      KindVariableDeclaration,
				Syntax:    field,
				Targets:   []ast.Expr{n},
				Tok:       token.ASSIGN,
				Decl:      DeclVariable,
				Text:      "var " + n.Name + " " + exprString(field.Type),
				Synthetic: true,
			}
			if t != nil {
				if zero := t.Zero(); zero != nil {
					node.Expr = zero
					node.Values = []ast.Expr{zero}
					node.Text += " = " + exprString(zero)
				}
			}
			id := b.add(node, n.Pos())
			if err := b.scope.Declare(n.Name, DeclVariable, 0, id); err != nil {
				return Fragment{}, b.locate(err, n.Pos())
			}
			var err error
			if out, err = b.sequence(out, Singleton(id)); err != nil {
				return Fragment{}, err
			}
		}
	}
	return out, nil
}

// resolveGotos wires every goto to the entry of its labeled statement.
func (b *builder) resolveGotos() error {
	for _, pg := range b.gotos {
		target, ok := b.labels[pg.label]
		if !ok {
			return &UnresolvedLabelError{Label: pg.label, Pos: b.position(pg.pos)}
		}
		if err := b.connect(pg.node, target, Sequential); err != nil {
			return err
		}
	}
	return nil
}

// insertRet adds the synthetic return. Every node that neither stops
// execution nor has a successor is wired to it, and variables whose scope
// ended at such a node now end at the return. An empty body becomes a
// single return node.
func (b *builder) insertRet(at token.Pos) error {
	if b.g.NodeCount() == 0 {
		ret := b.add(&Node{Kind: KindRet, Text: "return", Synthetic: true}, at)
		b.g.setEntry(ret)
		return nil
	}
	var dangling []NodeID
	for _, n := range b.g.Nodes() {
		if n.StopsExecution() || len(b.g.out[n.ID]) > 0 {
			continue
		}
		if n.Kind == KindNoOp && len(b.g.in[n.ID]) == 0 && n.ID != b.g.Entry() {
			continue
		}
		dangling = append(dangling, n.ID)
	}
	if len(dangling) == 0 {
		return nil
	}
	ret := b.add(&Node{Kind: KindRet, Text: "return", Synthetic: true}, at)
	if names := b.results.Names(); len(names) > 0 {
		r := b.g.Node(ret)
		for _, name := range names {
			r.Results = append(r.Results, ast.NewIdent(name))
		}
	}
	for _, id := range dangling {
		if err := b.connect(id, ret, Sequential); err != nil {
			return err
		}
	}
	for _, v := range b.scope.Variables() {
		for _, id := range dangling {
			if v.ScopeEnd == id {
				v.ScopeEnd = ret
			}
		}
	}
	return nil
}
