package cfg

import (
	"go/ast"
	"go/token"
)

// loop wires a lowered loop: guard True enters body, guard False leaves to
// exit, and a body that falls off its end returns through post (when
// present) to the guard.
type loop struct {
	guard NodeID
	exit  NodeID
	body  Fragment
	post  Fragment
}

func (b *builder) wireLoop(l loop) (Fragment, error) {
	back := l.guard
	if !l.post.Empty() {
		back = l.post.Entry
		if err := b.join(l.post.Last, l.guard); err != nil {
			return Fragment{}, err
		}
	}
	if err := b.connect(l.guard, l.body.Entry, True); err != nil {
		return Fragment{}, err
	}
	if err := b.connect(l.guard, l.exit, False); err != nil {
		return Fragment{}, err
	}
	if err := b.join(l.body.Last, back); err != nil {
		return Fragment{}, err
	}
	inside := Fragment{}
	inside.Merge(l.body)
	inside.Merge(l.post)
	b.g.regions = append(b.g.regions, &Region{
		Kind:      RegionLoop,
		Condition: l.guard,
		Exit:      l.exit,
		Nodes:     inside.Nodes(),
	})
	out := Fragment{Entry: l.guard, Last: l.exit}
	out.include(l.guard)
	out.Merge(inside)
	out.include(l.exit)
	return out, nil
}

// forStmt lowers three-clause, condition-only and infinite loops. A missing
// condition becomes a guard on true.
func (b *builder) forStmt(s *ast.ForStmt) (Fragment, error) {
	label := b.takeLabel()
	init, depth, err := b.openInit(s.Init)
	if err != nil {
		return Fragment{}, err
	}

	var guard NodeID
	if s.Cond == nil {
		cond := &ast.Ident{NamePos: s.For, Name: "true"}
		guard = b.add(&Node{Kind: KindLoopGuard, Syntax: s, Expr: cond, Sat: Satisfied, Text: "true", Synthetic: true}, s.For)
	} else {
		cond, sat, err := b.prepare(s.Cond)
		if err != nil {
			return Fragment{}, err
		}
		guard = b.add(&Node{Kind: KindLoopGuard, Syntax: s.Cond, Expr: cond, Sat: sat, Text: exprString(cond)}, s.Cond.Pos())
	}
	exit := b.noop(s.End())

	var post Fragment
	if s.Post != nil {
		if post, err = b.stmt(s.Post); err != nil {
			return Fragment{}, err
		}
	}
	continueTo := guard
	if !post.Empty() {
		continueTo = post.Entry
	}

	b.pushJump(label, exit, continueTo)
	body, err := b.scopedList(s.Body.List, s.Body.Lbrace)
	b.popJump()
	if err != nil {
		return Fragment{}, err
	}

	out, err := b.wireLoop(loop{guard: guard, exit: exit, body: body, post: post})
	if err != nil {
		return Fragment{}, err
	}
	return b.closeInit(init, depth, out)
}

// rangeStmt lowers a range loop to an explicit index: the index and value
// are initialized before the guard and advanced between the end of the
// body and the guard. Ranging over an integer compares the index with it
// directly and has no value.
func (b *builder) rangeStmt(s *ast.RangeStmt) (Fragment, error) {
	label := b.takeLabel()
	if s.Key == nil && s.Value == nil {
		return Fragment{}, &MalformedRangeError{Pos: b.position(s.For)}
	}
	coll, _, err := b.prepare(s.X)
	if err != nil {
		return Fragment{}, err
	}
	key, err := b.prepareTarget(s.Key)
	if err != nil {
		return Fragment{}, err
	}
	value, err := b.prepareTarget(s.Value)
	if err != nil {
		return Fragment{}, err
	}
	overInt := b.isIntegerExpr(s.X)
	define := s.Tok == token.DEFINE

	depth := b.scope.OpenBlock(NoNode)
	index, declareIndex := key, define
	if key == nil || isBlank(key) {
		index, declareIndex = b.temp("index"), true
	}
	zero := &ast.BasicLit{ValuePos: s.For, Kind: token.INT, Value: "0"}
	id, err := b.rangeVar(s, index, zero, declareIndex, index != key)
	if err != nil {
		return Fragment{}, err
	}
	head := Singleton(id)

	element := &ast.IndexExpr{X: coll, Index: index}
	hasValue := value != nil && !isBlank(value) && !overInt
	if hasValue {
		id, err := b.rangeVar(s, value, element, define, false)
		if err != nil {
			return Fragment{}, err
		}
		if head, err = b.sequence(head, Singleton(id)); err != nil {
			return Fragment{}, err
		}
	}
	b.scope.Block(depth).Open = head.Entry

	limit := ast.Expr(&ast.CallExpr{Fun: ast.NewIdent("len"), Args: []ast.Expr{coll}})
	if overInt {
		limit = coll
	}
	cond := &ast.BinaryExpr{X: index, Op: token.LSS, Y: limit}
	guard := b.add(&Node{Kind: KindLoopGuard, Syntax: s, Expr: cond, Text: exprString(cond)}, s.For)
	exit := b.noop(s.End())

	next := &ast.BinaryExpr{X: index, Op: token.ADD, Y: &ast.BasicLit{Kind: token.INT, Value: "1"}}
	post := Singleton(b.add(&Node{
		Kind:      KindAssignment,
		Expr:      next,
		Targets:   []ast.Expr{index},
		Values:    []ast.Expr{next},
		Tok:       token.ASSIGN,
		Text:      exprString(index) + " = " + exprString(next),
		Synthetic: true,
	}, s.For))
	if hasValue {
		advance := b.add(&Node{
			Kind:      KindAssignment,
			Expr:      element,
			Targets:   []ast.Expr{value},
			Values:    []ast.Expr{element},
			Tok:       token.ASSIGN,
			Text:      exprString(value) + " = " + exprString(element),
			Synthetic: true,
		}, s.For)
		if post, err = b.sequence(post, Singleton(advance)); err != nil {
			return Fragment{}, err
		}
	}

	b.pushJump(label, exit, post.Entry)
	body, err := b.scopedList(s.Body.List, s.Body.Lbrace)
	b.popJump()
	if err != nil {
		return Fragment{}, err
	}

	out, err := b.wireLoop(loop{guard: guard, exit: exit, body: body, post: post})
	if err != nil {
		return Fragment{}, err
	}
	if out, err = b.sequence(head, out); err != nil {
		return Fragment{}, err
	}
	b.scope.CloseBlock(depth, exit)
	return out, nil
}

// prepareTarget checks a range key or value expression.
func (b *builder) prepareTarget(e ast.Expr) (ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	p, _, err := b.prepare(e)
	return p, err
}

// rangeVar emits the initialization of a range index or value.
func (b *builder) rangeVar(s *ast.RangeStmt, target, value ast.Expr, declare, synthetic bool) (NodeID, error) {
	n := &Node{
		Kind:      KindAssignment,
		Syntax:    s,
		Expr:      value,
		Targets:   []ast.Expr{target},
		Values:    []ast.Expr{value},
		Tok:       token.ASSIGN,
		Text:      exprString(target) + " = " + exprString(value),
		Synthetic: synthetic,
	}
	if declare {
		n.Kind, n.Tok, n.Decl = KindVariableDeclaration, token.DEFINE, DeclShortVariable
		n.Text = exprString(target) + " := " + exprString(value)
	}
	at := s.For
	if target.Pos().IsValid() {
		at = target.Pos()
	}
	id := b.add(n, at)
	if declare && !synthetic {
		if err := b.scope.Declare(identName(target), DeclShortVariable, b.scope.Depth(), id); err != nil {
			return NoNode, b.locate(err, at)
		}
	}
	return id, nil
}
