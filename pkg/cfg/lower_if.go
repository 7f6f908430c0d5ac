package cfg

import "go/ast"

// ifStmt lowers an if statement to a Condition guard whose True edge leads
// into the then branch and whose False edge leads into the else branch, or
// to the shared exit when there is none. else-if chains recurse.
func (b *builder) ifStmt(s *ast.IfStmt) (Fragment, error) {
	init, depth, err := b.openInit(s.Init)
	if err != nil {
		return Fragment{}, err
	}
	cond, sat, err := b.prepare(s.Cond)
	if err != nil {
		return Fragment{}, err
	}
	guard := b.add(&Node{Kind: KindCondition, Syntax: s.Cond, Expr: cond, Sat: sat, Text: exprString(cond)}, s.Cond.Pos())

	then, err := b.scopedList(s.Body.List, s.Body.Lbrace)
	if err != nil {
		return Fragment{}, err
	}
	var elseFrag Fragment
	switch e := s.Else.(type) {
	case nil:
	case *ast.BlockStmt:
		elseFrag, err = b.scopedList(e.List, e.Lbrace)
	case *ast.IfStmt:
		elseFrag, err = b.ifStmt(e)
	default:
		err = b.unsupported("else branch", e.Pos())
	}
	if err != nil {
		return Fragment{}, err
	}

	exit := b.noop(s.End())
	if err := b.connect(guard, then.Entry, True); err != nil {
		return Fragment{}, err
	}
	if err := b.join(then.Last, exit); err != nil {
		return Fragment{}, err
	}
	if elseFrag.Empty() {
		err = b.connect(guard, exit, False)
	} else {
		if err = b.connect(guard, elseFrag.Entry, False); err == nil {
			err = b.join(elseFrag.Last, exit)
		}
	}
	if err != nil {
		return Fragment{}, err
	}

	out := Fragment{Entry: guard, Last: exit}
	out.include(guard)
	out.Merge(then)
	out.Merge(elseFrag)
	out.include(exit)
	b.g.regions = append(b.g.regions, &Region{
		Kind:      RegionIfThenElse,
		Condition: guard,
		Exit:      exit,
		Nodes:     out.Nodes(),
		Then:      then.Nodes(),
		Else:      elseFrag.Nodes(),
	})
	return b.closeInit(init, depth, out)
}
