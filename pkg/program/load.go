package program

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

// ErrNoModule is returned by DetectModule when no go.mod encloses the
// directory.
var ErrNoModule = errors.New("no go.mod found")

// Program is the set of graphs built from loaded packages.
type Program struct {
	Module string
	Dir    string
	Units  []*Unit
}

// Graphs returns the graphs of every unit in load order.
func (p *Program) Graphs() []*cfg.Graph {
	var out []*cfg.Graph
	for _, u := range p.Units {
		out = append(out, u.Graphs...)
	}
	return out
}

// Failures returns the skipped functions of every unit.
func (p *Program) Failures() []Failure {
	var out []Failure
	for _, u := range p.Units {
		out = append(out, u.Failures...)
	}
	return out
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// LoadPackages type-checks the packages matching patterns under dir and
// builds every function with type information available.
func LoadPackages(ctx context.Context, dir string, patterns []string, opts Options) (*Program, error) {
	opts = opts.normalize()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	pcfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages in %s: %w", dir, err)
	}

	prog := &Program{Dir: dir}
	if mod, err := DetectModule(dir); err == nil {
		prog.Module = mod
	} else if !errors.Is(err, ErrNoModule) {
		return nil, err
	}

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			if opts.Policy == Abort {
				return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, pkg.Errors[0])
			}
			opts.Logger.Warn("package has errors", "package", pkg.PkgPath, "errors", len(pkg.Errors), "first", pkg.Errors[0].Error())
		}
		for _, file := range pkg.Syntax {
			unit, err := BuildFile(ctx, pkg.Fset, file, pkg.TypesInfo, opts)
			if err != nil {
				return nil, err
			}
			unit.Package = pkg.PkgPath
			prog.Units = append(prog.Units, unit)
		}
	}
	opts.Logger.Info("loaded program", "dir", dir, "module", prog.Module, "packages", len(pkgs), "files", len(prog.Units))
	return prog, nil
}

// DetectModule returns the module path of the go.mod enclosing dir.
func DetectModule(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	for {
		path := filepath.Join(abs, "go.mod")
		content, err := os.ReadFile(path)
		if err == nil {
			mod, err := modfile.Parse(path, content, nil)
			if err != nil {
				return "", fmt.Errorf("parsing %s: %w", path, err)
			}
			if mod.Module == nil {
				return "", fmt.Errorf("%s: missing module directive", path)
			}
			return mod.Module.Mod.Path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoModule
		}
		abs = parent
	}
}
