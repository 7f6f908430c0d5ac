// Package program lowers every function of a file or a set of packages to
// control flow graphs. Each function gets its own builder, so functions are
// built concurrently with a bounded number of workers.
package program

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/l3aro/go-cfg-builder/internal/log"
	"github.com/l3aro/go-cfg-builder/pkg/cfg"
	"github.com/l3aro/go-cfg-builder/pkg/native"
	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

// FailurePolicy decides what happens when one function fails to build.
type FailurePolicy int

const (
	// Skip records the failure and keeps the other functions.
	Skip FailurePolicy = iota
	// Abort stops the whole build at the first failure.
	Abort
)

func (p FailurePolicy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "skip" or "abort".
func ParsePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "":
		return Skip, nil
	case "abort":
		return Abort, nil
	default:
		return Skip, fmt.Errorf("invalid failure policy %q (expected skip or abort)", s)
	}
}

// Options configures a program build.
type Options struct {
	Policy      FailurePolicy
	Concurrency int
	Stubs       cfg.StubRegistry
	Simplify    bool
	Logger      log.Logger
}

// DefaultOptions returns options that skip failing functions and use one
// worker per CPU.
func DefaultOptions() Options {
	return Options{
		Policy:      Skip,
		Concurrency: runtime.GOMAXPROCS(0),
		Stubs:       native.Default(),
		Simplify:    true,
		Logger:      log.Nop(),
	}
}

func (o Options) normalize() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Stubs == nil {
		o.Stubs = native.Default()
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	return o
}

// Failure is a function that could not be built under the Skip policy.
type Failure struct {
	Function string
	Pos      token.Position
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Pos, f.Function, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Unit holds the graphs of one source file in declaration order.
type Unit struct {
	File     string
	Package  string
	Fset     *token.FileSet
	Graphs   []*cfg.Graph
	Failures []Failure
}

// Graph returns the graph with the given function name ("F" or "T.M").
func (u *Unit) Graph(name string) *cfg.Graph {
	name = normalizeName(name)
	for _, g := range u.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// BuildSource parses src (anything go/parser accepts, or nil to read
// filename) and builds every function in it.
func BuildSource(ctx context.Context, filename string, src any, opts Options) (*Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return BuildFile(ctx, fset, file, nil, opts)
}

// BuildFile builds every function declared in file. When info is nil types
// are resolved syntactically from the declarations of the file.
func BuildFile(ctx context.Context, fset *token.FileSet, file *ast.File, info *types.Info, opts Options) (*Unit, error) {
	opts = opts.normalize()
	filename := fset.Position(file.Pos()).Filename
	unit := &Unit{File: filename, Package: file.Name.Name, Fset: fset}

	var funcs []*ast.FuncDecl
	insp := inspector.New([]*ast.File{file})
	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		if fn := n.(*ast.FuncDecl); fn.Body != nil {
			funcs = append(funcs, fn)
		}
	})

	buildOpts := []cfg.Option{
		cfg.WithImports(cfg.ImportsOf(file)),
		cfg.WithStubs(opts.Stubs),
		cfg.WithLogger(opts.Logger),
	}
	if info != nil {
		buildOpts = append(buildOpts, cfg.WithTypesInfo(info))
	} else {
		resolver := typesys.NewSyntactic()
		resolver.DeclareTypes(file)
		buildOpts = append(buildOpts, cfg.WithTypeResolver(resolver))
	}
	if !opts.Simplify {
		buildOpts = append(buildOpts, cfg.WithoutSimplify())
	}

	names := DeclNames(funcs)
	graphs := make([]*cfg.Graph, len(funcs))
	errs := make([]error, len(funcs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for i, fn := range funcs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g, err := cfg.BuildFunc(fset, fn, buildOpts...)
			if err != nil {
				errs[i] = err
				if opts.Policy == Abort {
					return err
				}
				return nil
			}
			g.Name = names[i]
			graphs[i] = g
			return nil
		})
	}
	waitErr := eg.Wait()

	for i, fn := range funcs {
		if errs[i] == nil {
			continue
		}
		if opts.Policy == Abort {
			return nil, fmt.Errorf("%s: %w", filename, errs[i])
		}
		f := Failure{Function: names[i], Pos: fset.Position(fn.Pos()), Err: errs[i]}
		opts.Logger.Warn("skipping function", "function", f.Function, "pos", f.Pos.String(), "error", f.Err)
		unit.Failures = append(unit.Failures, f)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("%s: %w", filename, waitErr)
	}
	for _, g := range graphs {
		if g != nil {
			unit.Graphs = append(unit.Graphs, g)
		}
	}
	opts.Logger.Debug("built file", "file", filename, "graphs", len(unit.Graphs), "failures", len(unit.Failures))
	return unit, nil
}

// FindFunc returns the function with a body named name in file. Methods
// match as "T.M" or "(*T).M"; a repeated name such as init matches as
// "init#2" from its second declaration on.
func FindFunc(file *ast.File, name string) *ast.FuncDecl {
	name = normalizeName(name)
	var funcs []*ast.FuncDecl
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Body != nil {
			funcs = append(funcs, fn)
		}
	}
	for i, n := range DeclNames(funcs) {
		if n == name {
			return funcs[i]
		}
	}
	return nil
}

// DeclNames returns the names funcs are known by within one file. A name
// declared more than once, which Go allows for init, carries its ordinal
// from the second declaration on: init, init#2, init#3.
func DeclNames(funcs []*ast.FuncDecl) []string {
	names := make([]string, len(funcs))
	seen := make(map[string]int, len(funcs))
	for i, fn := range funcs {
		name := cfg.FuncName(fn)
		seen[name]++
		names[i] = OrdinalName(name, seen[name])
	}
	return names
}

// OrdinalName returns name for its first declaration and name#n for the
// n-th one after that.
func OrdinalName(name string, n int) string {
	if n <= 1 {
		return name
	}
	return name + "#" + strconv.Itoa(n)
}

var nameNormalizer = strings.NewReplacer("(*", "", "(", "", ")", "", "*", "")

func normalizeName(name string) string {
	return nameNormalizer.Replace(strings.TrimSpace(name))
}
