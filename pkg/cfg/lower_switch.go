package cfg

import (
	"go/ast"
	"go/token"
)

// caseCheck is the guard chain built for one case clause: entry is where
// the previous guard's False edge lands, guard is the Condition whose True
// edge enters the clause body.
type caseCheck struct {
	entry NodeID
	guard NodeID
}

// switchParts collects what the expression and type switch lowerers share.
type switchParts struct {
	checks  [][]caseCheck // per clause; nil for default
	bodies  []Fragment
	exit    NodeID
	pre     Fragment // tag or subject evaluation, may be empty
	entries []NodeID
}

// wireSwitch chains the case guards through their False edges in source
// order, sends each True edge into its clause body, and falls back to the
// default clause (or the exit) after the last guard. A body ending in
// fallthrough continues into the next body; any other body that falls off
// its end leaves to the exit.
func (b *builder) wireSwitch(p *switchParts) (Fragment, error) {
	var (
		first   = NoNode
		prev    = NoNode
		deflt   = -1
		regions []*Region
	)
	link := func(to NodeID) error {
		if prev == NoNode {
			first = to
			return nil
		}
		return b.connect(prev, to, False)
	}
	for i, checks := range p.checks {
		if checks == nil {
			deflt = i
			continue
		}
		for _, c := range checks {
			if err := link(c.entry); err != nil {
				return Fragment{}, err
			}
			if err := b.connect(c.guard, p.bodies[i].Entry, True); err != nil {
				return Fragment{}, err
			}
			prev = c.guard
			regions = append(regions, &Region{
				Kind:      RegionSwitchCase,
				Condition: c.guard,
				Exit:      p.exit,
				Nodes:     p.bodies[i].Nodes(),
			})
		}
	}
	fallback := p.exit
	if deflt >= 0 {
		fallback = p.bodies[deflt].Entry
	}
	if err := link(fallback); err != nil {
		return Fragment{}, err
	}

	for i, body := range p.bodies {
		last := b.g.Node(body.Last)
		if last.Kind == KindFallthrough {
			next := p.exit
			if i+1 < len(p.bodies) {
				next = p.bodies[i+1].Entry
			}
			if err := b.connect(body.Last, next, Sequential); err != nil {
				return Fragment{}, err
			}
			continue
		}
		if err := b.join(body.Last, p.exit); err != nil {
			return Fragment{}, err
		}
	}

	out := Fragment{Entry: first, Last: p.exit}
	out.include(p.entries...)
	for _, body := range p.bodies {
		out.Merge(body)
	}
	out.include(p.exit)
	b.g.regions = append(b.g.regions, &Region{
		Kind:      RegionSwitch,
		Condition: first,
		Exit:      p.exit,
		Nodes:     out.Nodes(),
	})
	b.g.regions = append(b.g.regions, regions...)
	return b.sequence(p.pre, out)
}

// subject returns e when it is cheap to repeat in every case guard, or a
// temporary holding its value otherwise.
func (b *builder) subject(e ast.Expr, prefix string) (ast.Expr, Fragment) {
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident, *ast.BasicLit:
		return e, Fragment{}
	case *ast.SelectorExpr:
		if _, ok := x.X.(*ast.Ident); ok {
			return e, Fragment{}
		}
	}
	tmp := b.temp(prefix)
	n := &Node{
		Kind:      KindVariableDeclaration,
		Syntax:    e,
		Expr:      e,
		Targets:   []ast.Expr{tmp},
		Values:    []ast.Expr{e},
		Tok:       token.DEFINE,
		Decl:      DeclShortVariable,
		Text:      tmp.Name + " := " + exprString(e),
		Synthetic: true,
	}
	if call, ok := ast.Unparen(e).(*ast.CallExpr); ok {
		n.Call = b.classifyCall(call)
	}
	return tmp, Singleton(b.add(n, e.Pos()))
}

// switchStmt lowers an expression switch. A tagless switch guards each case
// with its expressions joined by ||; a tagged one compares the tag against
// each of them.
func (b *builder) switchStmt(s *ast.SwitchStmt) (Fragment, error) {
	label := b.takeLabel()
	init, depth, err := b.openInit(s.Init)
	if err != nil {
		return Fragment{}, err
	}
	p := &switchParts{}
	var tag ast.Expr
	if s.Tag != nil {
		prepared, _, err := b.prepare(s.Tag)
		if err != nil {
			return Fragment{}, err
		}
		tag, p.pre = b.subject(prepared, "tag")
	}

	for _, stmt := range s.Body.List {
		cc := stmt.(*ast.CaseClause)
		if cc.List == nil {
			p.checks = append(p.checks, nil)
			continue
		}
		var cond ast.Expr
		for _, e := range cc.List {
			e, _, err := b.prepare(e)
			if err != nil {
				return Fragment{}, err
			}
			if tag != nil {
				e = &ast.BinaryExpr{X: tag, OpPos: e.Pos(), Op: token.EQL, Y: e}
			}
			if cond == nil {
				cond = e
			} else {
				cond = &ast.BinaryExpr{X: cond, OpPos: e.Pos(), Op: token.LOR, Y: e}
			}
		}
		cond, sat := shortCircuit(cond, b.known)
		guard := b.add(&Node{Kind: KindCondition, Syntax: cc, Expr: cond, Sat: sat, Text: exprString(cond)}, cc.Case)
		p.checks = append(p.checks, []caseCheck{{entry: guard, guard: guard}})
		p.entries = append(p.entries, guard)
	}

	p.exit = b.noop(s.End())
	b.pushJump(label, p.exit, NoNode)
	for _, stmt := range s.Body.List {
		cc := stmt.(*ast.CaseClause)
		body, err := b.scopedList(cc.Body, cc.Colon)
		if err != nil {
			b.popJump()
			return Fragment{}, err
		}
		p.bodies = append(p.bodies, body)
	}
	b.popJump()

	out, err := b.wireSwitch(p)
	if err != nil {
		return Fragment{}, err
	}
	return b.closeInit(init, depth, out)
}

// typeSwitch lowers a type switch. Each listed type becomes a checked type
// assertion v, ok := x.(T) followed by the guard ok == true; case nil
// becomes x == nil. The bound variable is redeclared in every clause.
func (b *builder) typeSwitch(s *ast.TypeSwitchStmt) (Fragment, error) {
	label := b.takeLabel()
	init, depth, err := b.openInit(s.Init)
	if err != nil {
		return Fragment{}, err
	}

	var (
		bind   *ast.Ident
		assert *ast.TypeAssertExpr
	)
	switch a := s.Assign.(type) {
	case *ast.AssignStmt:
		if len(a.Lhs) == 1 && len(a.Rhs) == 1 {
			bind, _ = a.Lhs[0].(*ast.Ident)
			assert, _ = a.Rhs[0].(*ast.TypeAssertExpr)
		}
	case *ast.ExprStmt:
		assert, _ = a.X.(*ast.TypeAssertExpr)
	}
	if assert == nil {
		return Fragment{}, b.unsupported("type switch guard", s.Assign.Pos())
	}
	if bind != nil && bind.Name == "_" {
		bind = nil
	}

	p := &switchParts{}
	x, _, err := b.prepare(assert.X)
	if err != nil {
		return Fragment{}, err
	}
	x, p.pre = b.subject(x, "subject")

	// the first assertion of a single-type clause also declares the binding
	declOf := make([]NodeID, len(s.Body.List))
	for i, stmt := range s.Body.List {
		cc := stmt.(*ast.CaseClause)
		declOf[i] = NoNode
		if cc.List == nil {
			p.checks = append(p.checks, nil)
			continue
		}
		var checks []caseCheck
		for _, typ := range cc.List {
			if identName(typ) == "nil" {
				cond := &ast.BinaryExpr{X: x, OpPos: typ.Pos(), Op: token.EQL, Y: ast.NewIdent("nil")}
				guard := b.add(&Node{Kind: KindCondition, Syntax: cc, Expr: cond, Text: exprString(cond)}, typ.Pos())
				checks = append(checks, caseCheck{entry: guard, guard: guard})
				p.entries = append(p.entries, guard)
				continue
			}
			target := ast.Expr(ast.NewIdent("_"))
			if bind != nil && len(cc.List) == 1 {
				target = bind
			}
			ok := b.temp("ok")
			value := &ast.TypeAssertExpr{X: x, Type: typ}
			decl := b.add(&Node{
				Kind:      KindMultiDeclaration,
				Syntax:    cc,
				Expr:      value,
				Targets:   []ast.Expr{target, ok},
				Values:    []ast.Expr{value},
				Tok:       token.DEFINE,
				Decl:      DeclMultiShortVariable,
				Text:      exprString(target) + ", " + ok.Name + " := " + exprString(value),
				Synthetic: true,
			}, typ.Pos())
			cond := &ast.BinaryExpr{X: ok, OpPos: typ.Pos(), Op: token.EQL, Y: ast.NewIdent("true")}
			guard := b.add(&Node{Kind: KindCondition, Syntax: cc, Expr: cond, Text: exprString(cond), Synthetic: true}, typ.Pos())
			if err := b.connect(decl, guard, Sequential); err != nil {
				return Fragment{}, err
			}
			if target == bind && declOf[i] == NoNode {
				declOf[i] = decl
			}
			checks = append(checks, caseCheck{entry: decl, guard: guard})
			p.entries = append(p.entries, decl, guard)
		}
		p.checks = append(p.checks, checks)
	}

	p.exit = b.noop(s.End())
	b.pushJump(label, p.exit, NoNode)
	defer b.popJump()
	for i, stmt := range s.Body.List {
		cc := stmt.(*ast.CaseClause)
		body, err := b.typeCaseBody(cc, bind, x, declOf[i])
		if err != nil {
			return Fragment{}, err
		}
		p.bodies = append(p.bodies, body)
	}

	out, err := b.wireSwitch(p)
	if err != nil {
		return Fragment{}, err
	}
	return b.closeInit(init, depth, out)
}

// typeCaseBody lowers one type switch clause in its own block with the
// binding declared. Clauses without a single-type assertion start with a
// synthetic v := x.
func (b *builder) typeCaseBody(cc *ast.CaseClause, bind *ast.Ident, x ast.Expr, decl NodeID) (Fragment, error) {
	depth := b.scope.OpenBlock(NoNode)
	var head Fragment
	if bind != nil {
		if decl == NoNode {
			decl = b.add(&Node{
				Kind:      KindVariableDeclaration,
				Syntax:    cc,
				Expr:      x,
				Targets:   []ast.Expr{bind},
				Values:    []ast.Expr{x},
				Tok:       token.DEFINE,
				Decl:      DeclShortVariable,
				Text:      bind.Name + " := " + exprString(x),
				Synthetic: true,
			}, cc.Colon)
			head = Singleton(decl)
		}
		if err := b.scope.Declare(bind.Name, DeclShortVariable, depth, decl); err != nil {
			return Fragment{}, b.locate(err, cc.Colon)
		}
	}
	var (
		body Fragment
		err  error
	)
	if len(cc.Body) > 0 || head.Empty() {
		if body, err = b.stmtList(cc.Body, cc.Colon); err != nil {
			return Fragment{}, err
		}
	}
	if body, err = b.sequence(head, body); err != nil {
		return Fragment{}, err
	}
	b.scope.Block(depth).Open = body.Entry
	b.scope.CloseBlock(depth, body.Last)
	return body, nil
}
