package cfg

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"strconv"
	"strings"

	"github.com/l3aro/go-cfg-builder/internal/log"
	"github.com/l3aro/go-cfg-builder/pkg/native"
	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

// StubRegistry resolves calls of imported functions to native stubs.
type StubRegistry interface {
	Lookup(pkg, name string, arity int) (*native.Stub, bool)
}

// Option configures how a graph is built.
type Option func(*options)

type options struct {
	resolver typesys.Resolver
	stubs    StubRegistry
	imports  map[string]string // local name -> import path
	info     *types.Info
	logger   log.Logger
	simplify bool
}

func newOptions(opts []Option) *options {
	o := &options{
		stubs:    native.Default(),
		logger:   log.Nop(),
		simplify: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.resolver == nil {
		if o.info != nil {
			o.resolver = typesys.NewFromInfo(o.info)
		} else {
			o.resolver = typesys.NewSyntactic()
		}
	}
	return o
}

// WithTypeResolver sets the resolver used for parameter, result and zero
// value types.
func WithTypeResolver(r typesys.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithStubs replaces the native stub registry.
func WithStubs(r StubRegistry) Option {
	return func(o *options) { o.stubs = r }
}

// WithImports sets the imports of the enclosing file, keyed by local name.
func WithImports(imports map[string]string) Option {
	return func(o *options) { o.imports = imports }
}

// WithTypesInfo enables type-checked classification of calls, selectors and
// constant conditions.
func WithTypesInfo(info *types.Info) Option {
	return func(o *options) { o.info = info }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithoutSimplify keeps the NoOp nodes produced during lowering.
func WithoutSimplify() Option {
	return func(o *options) { o.simplify = false }
}

// ImportsOf maps the local names of file's imports to their paths. Blank
// and dot imports are skipped.
func ImportsOf(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := path.Base(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = p
	}
	return imports
}

// jumpTarget is an enclosing loop or switch that break and continue can
// leave. continueTo is NoNode for switches.
type jumpTarget struct {
	label      string
	breakTo    NodeID
	continueTo NodeID
}

type pendingGoto struct {
	node  NodeID
	label string
	pos   token.Pos
}

// builder holds the state of one function body being lowered.
type builder struct {
	fset  *token.FileSet
	opts  *options
	g     *Graph
	scope *ScopeTracker

	results typesys.Shape
	jumps   []jumpTarget
	gotos   []pendingGoto
	labels  map[string]NodeID
	label   string // label attached to the statement being lowered

	anon     *int // shared by nested literals so names stay unique
	anonName map[*ast.FuncLit]string
	temps    int
}

func newBuilder(fset *token.FileSet, name string, o *options, anon *int) *builder {
	return &builder{
		fset:     fset,
		opts:     o,
		g:        NewGraph(name),
		scope:    NewScopeTracker(),
		labels:   make(map[string]NodeID),
		anon:     anon,
		anonName: make(map[*ast.FuncLit]string),
	}
}

func (b *builder) position(p token.Pos) token.Position {
	if b.fset == nil || !p.IsValid() {
		return token.Position{}
	}
	return b.fset.Position(p)
}

// add inserts n, records the identifiers visible at that point and returns
// its ID.
func (b *builder) add(n *Node, at token.Pos) NodeID {
	n.Pos = b.position(at)
	id := b.g.AddNode(n)
	b.g.setVisible(id, b.scope.VisibleNames())
	return id
}

func (b *builder) noop(at token.Pos) NodeID {
	return b.add(&Node{Kind: KindNoOp}, at)
}

func (b *builder) connect(from, to NodeID, kind EdgeKind) error {
	return b.g.AddEdge(from, to, kind)
}

// fallsThrough reports whether control can leave id by its textual successor.
func (b *builder) fallsThrough(id NodeID) bool {
	return !terminates(b.g.Node(id).Kind)
}

// join adds an edge from last to exit unless last stops or jumps.
func (b *builder) join(last, exit NodeID) error {
	if !b.fallsThrough(last) {
		return nil
	}
	return b.connect(last, exit, Sequential)
}

// takeLabel returns and clears the label of the statement being lowered.
func (b *builder) takeLabel() string {
	l := b.label
	b.label = ""
	return l
}

func (b *builder) pushJump(label string, breakTo, continueTo NodeID) {
	b.jumps = append(b.jumps, jumpTarget{label: label, breakTo: breakTo, continueTo: continueTo})
}

func (b *builder) popJump() {
	b.jumps = b.jumps[:len(b.jumps)-1]
}

// temp returns a fresh identifier that cannot clash with source names.
func (b *builder) temp(prefix string) *ast.Ident {
	b.temps++
	return ast.NewIdent(fmt.Sprintf("%s#%d", prefix, b.temps))
}

// locate fills in the position of errors raised below the builder.
func (b *builder) locate(err error, at token.Pos) error {
	if re, ok := err.(*RedeclarationError); ok && !re.Pos.IsValid() {
		re.Pos = b.position(at)
	}
	return err
}

func (b *builder) unsupported(construct string, at token.Pos) error {
	return &UnsupportedConstructError{Construct: construct, Pos: b.position(at)}
}

func exprString(e ast.Expr) string {
	if e == nil {
		return ""
	}
	return types.ExprString(e)
}

func exprList(list []ast.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ", ")
}

func identName(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func isBlank(e ast.Expr) bool {
	return identName(e) == "_"
}
