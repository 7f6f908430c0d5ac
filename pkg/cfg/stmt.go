package cfg

import (
	"fmt"
	"go/ast"
	"go/token"
)

// stmt lowers one statement into a fragment.
func (b *builder) stmt(s ast.Stmt) (Fragment, error) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return b.block(s)
	case *ast.ExprStmt:
		return b.exprStmt(s)
	case *ast.AssignStmt:
		return b.assign(s)
	case *ast.IncDecStmt:
		return b.incDec(s)
	case *ast.DeclStmt:
		return b.declStmt(s)
	case *ast.ReturnStmt:
		return b.returnStmt(s)
	case *ast.BranchStmt:
		return b.branch(s)
	case *ast.LabeledStmt:
		return b.labeled(s)
	case *ast.IfStmt:
		return b.ifStmt(s)
	case *ast.ForStmt:
		return b.forStmt(s)
	case *ast.RangeStmt:
		return b.rangeStmt(s)
	case *ast.SwitchStmt:
		return b.switchStmt(s)
	case *ast.TypeSwitchStmt:
		return b.typeSwitch(s)
	case *ast.DeferStmt:
		return b.deferStmt(s)
	case *ast.GoStmt:
		return b.goStmt(s)
	case *ast.SendStmt:
		return b.send(s)
	case *ast.EmptyStmt:
		return Singleton(b.noop(s.Semicolon)), nil
	case *ast.SelectStmt:
		return Fragment{}, b.unsupported("select statement", s.Pos())
	case *ast.BadStmt:
		return Fragment{}, b.unsupported("malformed statement", s.Pos())
	default:
		return Fragment{}, b.unsupported(fmt.Sprintf("%T", s), s.Pos())
	}
}

// stmtList lowers list in order. An empty list yields a single NoOp.
func (b *builder) stmtList(list []ast.Stmt, at token.Pos) (Fragment, error) {
	var out Fragment
	for _, s := range list {
		f, err := b.stmt(s)
		if err != nil {
			return Fragment{}, err
		}
		if out, err = b.sequence(out, f); err != nil {
			return Fragment{}, err
		}
	}
	if out.Empty() {
		return Singleton(b.noop(at)), nil
	}
	return out, nil
}

// scopedList lowers the body of a branch, loop or case in its own block.
// The body gets no marker nodes, so a guard leads straight to its first
// statement. Variables declared in it end at its last node.
func (b *builder) scopedList(list []ast.Stmt, at token.Pos) (Fragment, error) {
	depth := b.scope.OpenBlock(NoNode)
	body, err := b.stmtList(list, at)
	if err != nil {
		return Fragment{}, err
	}
	b.scope.Block(depth).Open = body.Entry
	b.scope.CloseBlock(depth, body.Last)
	return body, nil
}

// block lowers an explicit { ... } statement between OpenBlock and
// CloseBlock markers. A block whose last statement leaves it gets no
// closing marker.
func (b *builder) block(s *ast.BlockStmt) (Fragment, error) {
	if len(s.List) == 0 {
		return Singleton(b.noop(s.Lbrace)), nil
	}
	open := b.add(&Node{Kind: KindOpenBlock, Syntax: s, Text: "{"}, s.Lbrace)
	depth := b.scope.OpenBlock(open)
	body, err := b.stmtList(s.List, s.Lbrace)
	if err != nil {
		return Fragment{}, err
	}
	out, err := b.sequence(Singleton(open), body)
	if err != nil {
		return Fragment{}, err
	}
	if !b.fallsThrough(body.Last) {
		b.scope.CloseBlock(depth, body.Last)
		return out, nil
	}
	closing := b.add(&Node{Kind: KindCloseBlock, Syntax: s, Text: "}"}, s.Rbrace)
	if out, err = b.sequence(out, Singleton(closing)); err != nil {
		return Fragment{}, err
	}
	b.scope.CloseBlock(depth, closing)
	return out, nil
}

// openInit lowers the init statement of an if, for or switch inside an
// implicit block. It returns depth -1 when there is no init statement.
func (b *builder) openInit(init ast.Stmt) (Fragment, int, error) {
	if init == nil {
		return Fragment{}, -1, nil
	}
	depth := b.scope.OpenBlock(NoNode)
	f, err := b.stmt(init)
	if err != nil {
		return Fragment{}, depth, err
	}
	b.scope.Block(depth).Open = f.Entry
	return f, depth, nil
}

// closeInit prepends init to f and ends the implicit block at f.Last.
func (b *builder) closeInit(init Fragment, depth int, f Fragment) (Fragment, error) {
	if depth < 0 {
		return f, nil
	}
	out, err := b.sequence(init, f)
	if err != nil {
		return Fragment{}, err
	}
	b.scope.CloseBlock(depth, f.Last)
	return out, nil
}

func (b *builder) exprStmt(s *ast.ExprStmt) (Fragment, error) {
	e, sat, err := b.prepare(s.X)
	if err != nil {
		return Fragment{}, err
	}
	n := &Node{Kind: KindExpression, Syntax: s, Expr: e, Sat: sat, Text: exprString(e)}
	if call, ok := ast.Unparen(e).(*ast.CallExpr); ok {
		n.Call = b.classifyCall(call)
		n.Kind = callNodeKind(n.Call)
	}
	return Singleton(b.add(n, s.Pos())), nil
}

func (b *builder) send(s *ast.SendStmt) (Fragment, error) {
	ch, _, err := b.prepare(s.Chan)
	if err != nil {
		return Fragment{}, err
	}
	v, _, err := b.prepare(s.Value)
	if err != nil {
		return Fragment{}, err
	}
	n := &Node{
		Kind:    KindSend,
		Syntax:  s,
		Expr:    v,
		Targets: []ast.Expr{ch},
		Values:  []ast.Expr{v},
		Tok:     token.ARROW,
		Text:    exprString(ch) + " <- " + exprString(v),
	}
	return Singleton(b.add(n, s.Pos())), nil
}
