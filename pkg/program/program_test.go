package program

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

const source = `package shop

import "os"

type Cart struct{ items []int }

func (c *Cart) Total() (sum int) {
	for _, it := range c.items {
		sum += it
	}
	return
}

func broken() {
	goto missing
}

func Quit(code int) {
	if code != 0 {
		os.Exit(code)
	}
}

func external()
`

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{in: "skip", want: Skip},
		{in: "", want: Skip},
		{in: " ABORT ", want: Abort},
		{in: "retry", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestBuildSource_Skip(t *testing.T) {
	unit, err := BuildSource(context.Background(), "shop.go", source, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "shop.go", unit.File)
	assert.Equal(t, "shop", unit.Package)
	require.Len(t, unit.Graphs, 2, "bodiless and failing functions are left out")
	assert.Equal(t, "Cart.Total", unit.Graphs[0].Name)
	assert.Equal(t, "Quit", unit.Graphs[1].Name)
	assert.NotNil(t, unit.Graph("(*Cart).Total"))
	assert.Nil(t, unit.Graph("broken"))

	require.Len(t, unit.Failures, 1)
	f := unit.Failures[0]
	assert.Equal(t, "broken", f.Function)
	assert.Equal(t, 14, f.Pos.Line)
	var ule *cfg.UnresolvedLabelError
	assert.True(t, errors.As(f, &ule))
	assert.Contains(t, f.Error(), "broken")
}

func TestBuildSource_Abort(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = Abort
	_, err := BuildSource(context.Background(), "shop.go", source, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfg.ErrUnresolvedLabel))
}

func TestBuildSource_ParseError(t *testing.T) {
	_, err := BuildSource(context.Background(), "bad.go", "package p\nfunc {", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing bad.go")
}

func TestBuildFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildSource(ctx, "shop.go", source, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildFile_Concurrency(t *testing.T) {
	src := "package p\n"
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		src += "func " + name + "(x int) int {\n\tif x > 0 {\n\t\treturn x\n\t}\n\treturn -x\n}\n"
	}
	for _, workers := range []int{1, 3, 16} {
		opts := DefaultOptions()
		opts.Concurrency = workers
		unit, err := BuildSource(context.Background(), "p.go", src, opts)
		require.NoError(t, err)
		require.Len(t, unit.Graphs, 8)
		assert.Equal(t, "a", unit.Graphs[0].Name, "declaration order is kept")
		assert.Equal(t, "h", unit.Graphs[7].Name)
	}
}

func TestBuildFile_WithoutSimplify(t *testing.T) {
	opts := DefaultOptions()
	opts.Simplify = false
	src := "package p\nfunc f(x bool) {\n\tif x {\n\t\tprintln()\n\t}\n}\n"
	plain, err := BuildSource(context.Background(), "p.go", src, opts)
	require.NoError(t, err)
	simple, err := BuildSource(context.Background(), "p.go", src, DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, plain.Graphs[0].NodeCount(), simple.Graphs[0].NodeCount())
}

func TestFindFunc(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "shop.go", source, 0)
	require.NoError(t, err)

	for _, name := range []string{"Cart.Total", "(*Cart).Total", "*Cart.Total"} {
		fn := FindFunc(file, name)
		require.NotNil(t, fn, name)
		assert.Equal(t, "Total", fn.Name.Name)
	}
	assert.NotNil(t, FindFunc(file, "Quit"))
	assert.Nil(t, FindFunc(file, "Missing"))
}

func writeModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/shop\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.go"), []byte(source), 0o644))
	return dir
}

func TestDetectModule(t *testing.T) {
	dir := writeModule(t)
	sub := filepath.Join(dir, "internal", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	mod, err := DetectModule(sub)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", mod)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "go.mod"), []byte("go 1.21\n"), 0o644))
	_, err = DetectModule(bad)
	assert.Error(t, err)
}

func TestLoadPackages(t *testing.T) {
	if testing.Short() {
		t.Skip("loading packages runs the go command")
	}
	dir := writeModule(t)
	prog, err := LoadPackages(context.Background(), dir, nil, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "example.com/shop", prog.Module)
	require.Len(t, prog.Units, 1)
	assert.Equal(t, "example.com/shop", prog.Units[0].Package)
	assert.Len(t, prog.Graphs(), 2)
	require.Len(t, prog.Failures(), 1)
	assert.Equal(t, "broken", prog.Failures()[0].Function)

	quit := prog.Units[0].Graph("Quit")
	require.NotNil(t, quit)
	var exits int
	for _, n := range quit.Nodes() {
		if n.Kind == cfg.KindExit {
			exits++
		}
	}
	assert.Equal(t, 1, exits, "os.Exit stops execution")
}

func TestBuildSource_Shapes(t *testing.T) {
	unit, err := BuildSource(context.Background(), filepath.Join("testdata", "shapes.go"), nil, DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, unit.Failures)

	var names []string
	for _, g := range unit.Graphs {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{
		"helper", "Grid.Sum", "Grid.Find", "classify", "drain", "describe", "mustOpen", "retry", "main",
	}, names)

	kinds := func(name string) map[cfg.NodeKind]int {
		g := unit.Graph(name)
		require.NotNil(t, g, name)
		out := make(map[cfg.NodeKind]int)
		for _, n := range g.Nodes() {
			out[n.Kind]++
		}
		return out
	}
	open := kinds("mustOpen")
	assert.Equal(t, 1, open[cfg.KindExit])
	assert.Equal(t, 1, open[cfg.KindPanic])

	assert.Len(t, unit.Graph("main").Anonymous(), 1)
	assert.Equal(t, "*Grid", unit.Graph("Grid.Sum").Receiver)
	assert.Len(t, unit.Graph("drain").Deferred(), 1)
}

const repeatedInit = `package p

var a, b int

func init() {
	a = 1
}

func init() {
	b = 2
}

func init() {
	a = 3
}
`

func hasNode(g *cfg.Graph, text string) bool {
	for _, n := range g.Nodes() {
		if n.Text == text {
			return true
		}
	}
	return false
}

func TestBuildSource_RepeatedInit(t *testing.T) {
	unit, err := BuildSource(context.Background(), "p.go", repeatedInit, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, unit.Graphs, 3)

	tests := []struct {
		name string
		text string
	}{
		{name: "init", text: "a = 1"},
		{name: "init#2", text: "b = 2"},
		{name: "init#3", text: "a = 3"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, unit.Graphs[i].Name)
			g := unit.Graph(tt.name)
			require.NotNil(t, g)
			assert.True(t, hasNode(g, tt.text), "graph %s holds %q", tt.name, tt.text)
		})
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", repeatedInit, 0)
	require.NoError(t, err)
	second := FindFunc(file, "init#2")
	require.NotNil(t, second)
	assert.Equal(t, 9, fset.Position(second.Pos()).Line)
	assert.Nil(t, FindFunc(file, "init#4"))
}

func TestOrdinalName(t *testing.T) {
	assert.Equal(t, "init", OrdinalName("init", 1))
	assert.Equal(t, "init#2", OrdinalName("init", 2))
	assert.Equal(t, "T.M", OrdinalName("T.M", 0))
}
