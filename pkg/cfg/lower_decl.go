package cfg

import (
	"go/ast"
	"go/token"
)

// compound maps an assignment operator to its binary operator.
var compound = map[token.Token]token.Token{
	token.ADD_ASSIGN:     token.ADD,
	token.SUB_ASSIGN:     token.SUB,
	token.MUL_ASSIGN:     token.MUL,
	token.QUO_ASSIGN:     token.QUO,
	token.REM_ASSIGN:     token.REM,
	token.AND_ASSIGN:     token.AND,
	token.OR_ASSIGN:      token.OR,
	token.XOR_ASSIGN:     token.XOR,
	token.SHL_ASSIGN:     token.SHL,
	token.SHR_ASSIGN:     token.SHR,
	token.AND_NOT_ASSIGN: token.AND_NOT,
}

func (b *builder) prepareAll(list []ast.Expr) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		p, _, err := b.prepare(e)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// singleCall returns the call of a one-value right-hand side.
func (b *builder) singleCall(values []ast.Expr) *Call {
	if len(values) != 1 {
		return nil
	}
	if call, ok := ast.Unparen(values[0]).(*ast.CallExpr); ok {
		return b.classifyCall(call)
	}
	return nil
}

func (b *builder) assign(s *ast.AssignStmt) (Fragment, error) {
	lhs, err := b.prepareAll(s.Lhs)
	if err != nil {
		return Fragment{}, err
	}
	rhs, err := b.prepareAll(s.Rhs)
	if err != nil {
		return Fragment{}, err
	}
	switch {
	case s.Tok == token.DEFINE:
		return b.shortDecl(s, lhs, rhs)
	case s.Tok == token.ASSIGN:
		return b.plainAssign(s, lhs, rhs)
	}
	op, ok := compound[s.Tok]
	if !ok || len(lhs) != 1 || len(rhs) != 1 {
		return Fragment{}, b.unsupported("assignment "+s.Tok.String(), s.Pos())
	}
	value := &ast.BinaryExpr{X: lhs[0], OpPos: s.TokPos, Op: op, Y: rhs[0]}
	n := &Node{
		Kind:    KindAssignment,
		Syntax:  s,
		Expr:    value,
		Targets: lhs,
		Values:  []ast.Expr{value},
		Tok:     s.Tok,
		Text:    exprString(lhs[0]) + " " + s.Tok.String() + " " + exprString(rhs[0]),
	}
	return Singleton(b.add(n, s.Pos())), nil
}

func (b *builder) plainAssign(s *ast.AssignStmt, lhs, rhs []ast.Expr) (Fragment, error) {
	if len(lhs) != len(rhs) || len(lhs) == 1 {
		n := &Node{
			Kind:    KindAssignment,
			Syntax:  s,
			Targets: lhs,
			Values:  rhs,
			Tok:     token.ASSIGN,
			Call:    b.singleCall(rhs),
			Text:    exprList(lhs) + " = " + exprList(rhs),
		}
		if len(rhs) == 1 {
			n.Expr = rhs[0]
		}
		return Singleton(b.add(n, s.Pos())), nil
	}
	// one node per pair; Syntax keeps the whole statement
	var out Fragment
	for i := range lhs {
		n := &Node{
			Kind:    KindAssignment,
			Syntax:  s,
			Expr:    rhs[i],
			Targets: lhs[i : i+1],
			Values:  rhs[i : i+1],
			Tok:     token.ASSIGN,
			Text:    exprString(lhs[i]) + " = " + exprString(rhs[i]),
		}
		var err error
		if out, err = b.sequence(out, Singleton(b.add(n, s.Pos()))); err != nil {
			return Fragment{}, err
		}
	}
	return out, nil
}

func (b *builder) shortDecl(s *ast.AssignStmt, lhs, rhs []ast.Expr) (Fragment, error) {
	depth := b.scope.Depth()
	names := make([]string, len(lhs))
	for i, e := range lhs {
		names[i] = identName(e)
	}

	if len(lhs) != len(rhs) {
		n := &Node{
			Kind:    KindMultiDeclaration,
			Syntax:  s,
			Targets: lhs,
			Values:  rhs,
			Tok:     token.DEFINE,
			Decl:    DeclMultiShortVariable,
			Call:    b.singleCall(rhs),
			Text:    exprList(lhs) + " := " + exprList(rhs),
		}
		if len(rhs) == 1 {
			n.Expr = rhs[0]
		}
		id := b.add(n, s.Pos())
		if _, err := b.scope.DeclareMulti(names, depth, id); err != nil {
			return Fragment{}, b.locate(err, s.Pos())
		}
		return Singleton(id), nil
	}

	if len(lhs) == 1 {
		n := &Node{
			Kind:    KindVariableDeclaration,
			Syntax:  s,
			Expr:    rhs[0],
			Targets: lhs,
			Values:  rhs,
			Tok:     token.DEFINE,
			Decl:    DeclShortVariable,
			Call:    b.singleCall(rhs),
			Text:    exprString(lhs[0]) + " := " + exprString(rhs[0]),
		}
		if isBlank(lhs[0]) {
			n.Kind, n.Decl, n.Tok = KindAssignment, DeclNone, token.ASSIGN
			n.Text = "_ = " + exprString(rhs[0])
		}
		id := b.add(n, s.Pos())
		if err := b.scope.Declare(names[0], DeclShortVariable, depth, id); err != nil {
			return Fragment{}, b.locate(err, s.Pos())
		}
		return Singleton(id), nil
	}

	fresh := 0
	for i, name := range names {
		if name != "_" && !b.scope.IsDeclaredAt(name, depth) && !contains(names[:i], name) {
			fresh++
		}
	}
	if fresh == 0 {
		return Fragment{}, b.locate(&RedeclarationError{Name: names[0]}, s.Pos())
	}

	// a, b := x, y declares the new names and assigns the existing ones.
	var out Fragment
	for i, name := range names {
		n := &Node{
			Syntax:  s,
			Expr:    rhs[i],
			Targets: lhs[i : i+1],
			Values:  rhs[i : i+1],
		}
		declare := name != "_" && !b.scope.IsDeclaredAt(name, depth)
		if declare {
			n.Kind, n.Decl, n.Tok = KindVariableDeclaration, DeclMultiShortVariable, token.DEFINE
			n.Text = name + " := " + exprString(rhs[i])
		} else {
			n.Kind, n.Tok = KindAssignment, token.ASSIGN
			n.Text = exprString(lhs[i]) + " = " + exprString(rhs[i])
		}
		id := b.add(n, s.Pos())
		if declare {
			if err := b.scope.Declare(name, DeclMultiShortVariable, depth, id); err != nil {
				return Fragment{}, b.locate(err, s.Pos())
			}
		}
		var err error
		if out, err = b.sequence(out, Singleton(id)); err != nil {
			return Fragment{}, err
		}
	}
	return out, nil
}

// incDec lowers x++ and x-- to x = x + 1 and x = x - 1.
func (b *builder) incDec(s *ast.IncDecStmt) (Fragment, error) {
	x, _, err := b.prepare(s.X)
	if err != nil {
		return Fragment{}, err
	}
	op := token.ADD
	if s.Tok == token.DEC {
		op = token.SUB
	}
	value := &ast.BinaryExpr{X: x, OpPos: s.TokPos, Op: op, Y: &ast.BasicLit{Kind: token.INT, Value: "1"}}
	n := &Node{
		Kind:    KindAssignment,
		Syntax:  s,
		Expr:    value,
		Targets: []ast.Expr{x},
		Values:  []ast.Expr{value},
		Tok:     s.Tok,
		Text:    exprString(x) + s.Tok.String(),
	}
	return Singleton(b.add(n, s.Pos())), nil
}

func (b *builder) declStmt(s *ast.DeclStmt) (Fragment, error) {
	gen, ok := s.Decl.(*ast.GenDecl)
	if !ok {
		return Fragment{}, b.unsupported("declaration", s.Pos())
	}
	var (
		out      Fragment
		lastType ast.Expr
		lastVals []ast.Expr
	)
	for _, spec := range gen.Specs {
		var (
			f   Fragment
			err error
		)
		switch spec := spec.(type) {
		case *ast.ValueSpec:
			if gen.Tok == token.CONST {
				// an omitted constant value repeats the previous one
				if len(spec.Values) > 0 {
					lastType, lastVals = spec.Type, spec.Values
				}
				f, err = b.valueSpec(spec, DeclConstant, lastType, lastVals)
			} else {
				f, err = b.valueSpec(spec, DeclVariable, spec.Type, spec.Values)
			}
		case *ast.TypeSpec:
			n := &Node{Kind: KindTypeDecl, Syntax: spec, Text: "type " + spec.Name.Name + " " + exprString(spec.Type)}
			if spec.Assign.IsValid() {
				n.Text = "type " + spec.Name.Name + " = " + exprString(spec.Type)
			}
			f = Singleton(b.add(n, spec.Pos()))
		default:
			err = b.unsupported("import inside a function", spec.Pos())
		}
		if err != nil {
			return Fragment{}, err
		}
		if out, err = b.sequence(out, f); err != nil {
			return Fragment{}, err
		}
	}
	if out.Empty() {
		return Singleton(b.noop(s.Pos())), nil
	}
	return out, nil
}

func (b *builder) valueSpec(spec *ast.ValueSpec, kind DeclKind, typ ast.Expr, values []ast.Expr) (Fragment, error) {
	values, err := b.prepareAll(values)
	if err != nil {
		return Fragment{}, err
	}
	depth := b.scope.Depth()
	keyword := "var "
	if kind == DeclConstant {
		keyword = "const "
	}
	typeText := ""
	if typ != nil {
		typeText = " " + exprString(typ)
	}

	targets := make([]ast.Expr, len(spec.Names))
	for i, name := range spec.Names {
		targets[i] = name
	}

	if len(values) > 0 && len(values) != len(spec.Names) {
		n := &Node{
			Kind:    KindMultiDeclaration,
			Syntax:  spec,
			Targets: targets,
			Values:  values,
			Tok:     token.ASSIGN,
			Decl:    kind,
			Call:    b.singleCall(values),
			Text:    keyword + exprList(targets) + typeText + " = " + exprList(values),
		}
		if len(values) == 1 {
			n.Expr = values[0]
		}
		id := b.add(n, spec.Pos())
		for _, name := range spec.Names {
			if err := b.scope.Declare(name.Name, kind, depth, id); err != nil {
				return Fragment{}, b.locate(err, name.Pos())
			}
		}
		return Singleton(id), nil
	}

	var out Fragment
	for i, name := range spec.Names {
		var value ast.Expr
		if i < len(values) {
			value = values[i]
		} else if t := b.resolveType(typ); t != nil {
			value = t.Zero()
		}
		n := &Node{
			Kind:    KindVariableDeclaration,
			Syntax:  spec,
			Expr:    value,
			Targets: []ast.Expr{name},
			Tok:     token.ASSIGN,
			Decl:    kind,
			Text:    keyword + name.Name + typeText,
		}
		if value != nil {
			n.Values = []ast.Expr{value}
			n.Text += " = " + exprString(value)
		}
		if i < len(values) {
			n.Call = b.singleCall(values[i : i+1])
		}
		id := b.add(n, name.Pos())
		if err := b.scope.Declare(name.Name, kind, depth, id); err != nil {
			return Fragment{}, b.locate(err, name.Pos())
		}
		var err error
		if out, err = b.sequence(out, Singleton(id)); err != nil {
			return Fragment{}, err
		}
	}
	return out, nil
}
