package cfg

import (
	"go/ast"
	"go/token"
)

func (b *builder) returnStmt(s *ast.ReturnStmt) (Fragment, error) {
	results, err := b.prepareAll(s.Results)
	if err != nil {
		return Fragment{}, err
	}
	n := &Node{Kind: KindReturn, Syntax: s, Results: results, Text: "return"}
	if len(results) == 0 {
		// a naked return yields the named results
		for _, name := range b.results.Names() {
			n.Results = append(n.Results, ast.NewIdent(name))
		}
	} else {
		n.Text += " " + exprList(results)
		n.Call = b.singleCall(results)
	}
	if len(n.Results) == 1 {
		n.Expr = n.Results[0]
	}
	return Singleton(b.add(n, s.Pos())), nil
}

// branch lowers goto, break, continue and fallthrough. break and continue
// are wired to their loop or switch here; gotos are resolved once every
// label of the function is known.
func (b *builder) branch(s *ast.BranchStmt) (Fragment, error) {
	label := ""
	if s.Label != nil {
		label = s.Label.Name
	}
	text := s.Tok.String()
	if label != "" {
		text += " " + label
	}
	switch s.Tok {
	case token.GOTO:
		id := b.add(&Node{Kind: KindGoto, Syntax: s, Label: label, Text: text}, s.Pos())
		b.gotos = append(b.gotos, pendingGoto{node: id, label: label, pos: s.Pos()})
		return Singleton(id), nil
	case token.FALLTHROUGH:
		return Singleton(b.add(&Node{Kind: KindFallthrough, Syntax: s, Text: text}, s.Pos())), nil
	case token.BREAK, token.CONTINUE:
		kind := KindBreak
		if s.Tok == token.CONTINUE {
			kind = KindContinue
		}
		target, err := b.jumpTarget(s, label)
		if err != nil {
			return Fragment{}, err
		}
		id := b.add(&Node{Kind: kind, Syntax: s, Label: label, Text: text}, s.Pos())
		if err := b.connect(id, target, Sequential); err != nil {
			return Fragment{}, err
		}
		return Singleton(id), nil
	}
	return Fragment{}, b.unsupported("branch "+text, s.Pos())
}

// jumpTarget finds the node a break or continue transfers control to.
func (b *builder) jumpTarget(s *ast.BranchStmt, label string) (NodeID, error) {
	for i := len(b.jumps) - 1; i >= 0; i-- {
		j := b.jumps[i]
		if label != "" && j.label != label {
			continue
		}
		if s.Tok == token.BREAK {
			return j.breakTo, nil
		}
		if j.continueTo != NoNode {
			return j.continueTo, nil
		}
		if label != "" {
			break
		}
	}
	if label != "" {
		return NoNode, &UnresolvedLabelError{Label: label, Pos: b.position(s.Pos())}
	}
	return NoNode, b.unsupported(s.Tok.String()+" outside of a loop or switch", s.Pos())
}

// labeled records the entry of the labeled statement as the goto target and
// lends the label to an enclosing loop or switch.
func (b *builder) labeled(s *ast.LabeledStmt) (Fragment, error) {
	name := s.Label.Name
	if _, dup := b.labels[name]; dup {
		return Fragment{}, &RedeclarationError{Name: name, Pos: b.position(s.Pos())}
	}
	switch s.Stmt.(type) {
	case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt:
		b.label = name
	}
	f, err := b.stmt(s.Stmt)
	b.label = ""
	if err != nil {
		return Fragment{}, err
	}
	b.labels[name] = f.Entry
	return f, nil
}

func (b *builder) deferStmt(s *ast.DeferStmt) (Fragment, error) {
	id, err := b.deferred(s, KindDefer, s.Call, "defer ")
	if err != nil {
		return Fragment{}, err
	}
	b.g.deferred = append(b.g.deferred, id)
	return Singleton(id), nil
}

func (b *builder) goStmt(s *ast.GoStmt) (Fragment, error) {
	id, err := b.deferred(s, KindGo, s.Call, "go ")
	if err != nil {
		return Fragment{}, err
	}
	return Singleton(id), nil
}

func (b *builder) deferred(s ast.Stmt, kind NodeKind, call *ast.CallExpr, keyword string) (NodeID, error) {
	e, _, err := b.prepare(call)
	if err != nil {
		return NoNode, err
	}
	prepared, ok := e.(*ast.CallExpr)
	if !ok {
		prepared = call
	}
	n := &Node{
		Kind:   kind,
		Syntax: s,
		Expr:   prepared,
		Call:   b.classifyCall(prepared),
		Text:   keyword + exprString(prepared),
	}
	return b.add(n, s.Pos()), nil
}
