package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/l3aro/go-cfg-builder/internal/config"
	"github.com/l3aro/go-cfg-builder/internal/log"
	"github.com/l3aro/go-cfg-builder/internal/scanner"
	"github.com/l3aro/go-cfg-builder/pkg/cache"
	"github.com/l3aro/go-cfg-builder/pkg/cfg"
	"github.com/l3aro/go-cfg-builder/pkg/extractor"
	"github.com/l3aro/go-cfg-builder/pkg/program"
)

var (
	buildTypes       bool
	buildPolicy      string
	buildJSON        bool
	buildConcurrency int
	buildTests       bool
	buildPatterns    []string
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build the graphs of every function under a directory",
	Long: `Build the control flow graph of every function under a directory and
report how many were built and which failed.

By default files are discovered by walking the directory, honoring
.gcfgignore files and the exclude globs of the configuration, and types are
resolved from the declarations of each file. With --types the packages are
loaded through the go command and fully type checked instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildTypes, "types", false, "Load and type check packages through the go command")
	buildCmd.Flags().StringSliceVar(&buildPatterns, "pattern", nil, "Package patterns for --types (default ./...)")
	buildCmd.Flags().StringVar(&buildPolicy, "policy", "", "Failure policy: skip or abort (default from config)")
	buildCmd.Flags().BoolVarP(&buildJSON, "json", "j", false, "Output graphs as JSON")
	buildCmd.Flags().IntVarP(&buildConcurrency, "concurrency", "c", 0, "Functions built at once (default from config)")
	buildCmd.Flags().BoolVar(&buildTests, "tests", false, "Include _test.go files")
}

// fileResult is the outcome of building one file.
type fileResult struct {
	File     string          `json:"file"`
	Package  string          `json:"package,omitempty"`
	Graphs   []*cfg.CFGInfo  `json:"graphs"`
	Failures []failureResult `json:"failures,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
}

type failureResult struct {
	Function string `json:"function"`
	Position string `json:"position"`
	Error    string `json:"error"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	opts, err := buildOptions(conf, logger)
	if err != nil {
		return err
	}

	var results []fileResult
	if buildTypes {
		results, err = buildPackages(cmd.Context(), dir, opts)
	} else {
		results, err = buildTree(cmd.Context(), dir, conf, opts, logger)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if buildJSON || conf.OutputFormat == config.OutputJSON {
		return printJSON(w, results)
	}
	printBuildSummary(w, results)
	return nil
}

func buildOptions(conf *config.Config, logger log.Logger) (program.Options, error) {
	opts := program.DefaultOptions()
	policy := conf.FailurePolicy
	if buildPolicy != "" {
		policy = buildPolicy
	}
	p, err := program.ParsePolicy(policy)
	if err != nil {
		return opts, err
	}
	opts.Policy = p
	opts.Simplify = conf.Simplify
	opts.Logger = logger
	if conf.Concurrency > 0 {
		opts.Concurrency = conf.Concurrency
	}
	if buildConcurrency > 0 {
		opts.Concurrency = buildConcurrency
	}
	return opts, nil
}

func buildPackages(ctx context.Context, dir string, opts program.Options) ([]fileResult, error) {
	prog, err := program.LoadPackages(ctx, dir, buildPatterns, opts)
	if err != nil {
		return nil, err
	}
	results := make([]fileResult, 0, len(prog.Units))
	for _, u := range prog.Units {
		r := unitResult(u)
		if rel, err := filepath.Rel(prog.Dir, u.File); err == nil {
			r.File = filepath.ToSlash(rel)
		}
		results = append(results, r)
	}
	return results, nil
}

func buildTree(ctx context.Context, dir string, conf *config.Config, opts program.Options, logger log.Logger) ([]fileResult, error) {
	scanOpts := scanner.DefaultOptions()
	scanOpts.Exclude = conf.Exclude
	scanOpts.IncludeTests = buildTests
	files, err := scanner.ScanWithOptions(dir, scanOpts)
	if err != nil {
		return nil, err
	}
	logger.Debug("scanned directory", "dir", dir, "files", len(files))

	var store *cache.Store
	if conf.CacheEnabled {
		store, err = cache.OpenStore(conf.CacheDir, conf.CacheMaxEntries)
		if err != nil {
			logger.Warn("graph cache unavailable", "error", err)
			store = nil
		} else {
			defer closeStore(store, logger)
		}
	}

	bar := newProgressBar(len(files), "Building graphs")
	results := make([]fileResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := buildFile(ctx, f, store, opts, logger)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if store != nil {
		stats := store.Stats()
		logger.Debug("graph cache", "hits", stats.HitCount, "misses", stats.MissCount, "entries", stats.Length)
	}
	return results, nil
}

// buildFile builds one scanned file. When every function of the file is
// cached under the current content the graphs are served from the cache.
func buildFile(ctx context.Context, f scanner.FileInfo, store *cache.Store, opts program.Options, logger log.Logger) (fileResult, error) {
	content, err := os.ReadFile(f.FullPath)
	if err != nil {
		return fileResult{}, fmt.Errorf("reading %s: %w", f.Path, err)
	}
	variant := cacheVariant(opts.Simplify)

	if store != nil {
		if infos, ok := cachedFile(store, f.Path, variant, content); ok {
			return fileResult{File: f.Path, Graphs: infos, Cached: true}, nil
		}
	}

	unit, err := program.BuildSource(ctx, f.Path, content, opts)
	if err != nil {
		return fileResult{}, err
	}
	r := unitResult(unit)
	r.File = f.Path
	if store != nil && len(unit.Failures) == 0 {
		for i, g := range unit.Graphs {
			if err := store.Put(cache.Key(f.Path, g.Name+variant, content), r.Graphs[i]); err != nil {
				logger.Warn("caching graph failed", "file", f.Path, "function", g.Name, "error", err)
			}
		}
	}
	return r, nil
}

func cachedFile(store *cache.Store, path, variant string, content []byte) ([]*cfg.CFGInfo, bool) {
	entries, err := extractor.FuncIndex(content)
	if err != nil {
		return nil, false
	}
	var infos []*cfg.CFGInfo
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		if !e.HasBody {
			continue
		}
		seen[e.Name]++
		name := program.OrdinalName(e.Name, seen[e.Name])
		info, err := store.Get(cache.Key(path, name+variant, content))
		if err != nil || info == nil {
			return nil, false
		}
		infos = append(infos, info)
	}
	return infos, len(infos) > 0
}

func unitResult(u *program.Unit) fileResult {
	r := fileResult{File: u.File, Package: u.Package, Graphs: make([]*cfg.CFGInfo, len(u.Graphs))}
	for i, g := range u.Graphs {
		r.Graphs[i] = cfg.Export(g)
	}
	for _, f := range u.Failures {
		r.Failures = append(r.Failures, failureResult{
			Function: f.Function,
			Position: f.Pos.String(),
			Error:    f.Err.Error(),
		})
	}
	return r
}

// newProgressBar returns nil when stderr is not a terminal.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	if total == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}

func printBuildSummary(w io.Writer, results []fileResult) {
	graphs, failures, cached := 0, 0, 0
	for _, r := range results {
		graphs += len(r.Graphs)
		failures += len(r.Failures)
		if r.Cached {
			cached++
		}
		fmt.Fprintf(w, "%s: %d graphs", r.File, len(r.Graphs))
		if len(r.Failures) > 0 {
			fmt.Fprintf(w, ", %d failed", len(r.Failures))
		}
		fmt.Fprintln(w)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s: %s: %s\n", f.Position, f.Function, f.Error)
		}
	}
	fmt.Fprintf(w, "\nBuilt %d graphs from %d files", graphs, len(results))
	if cached > 0 {
		fmt.Fprintf(w, " (%d files from cache)", cached)
	}
	if failures > 0 {
		fmt.Fprintf(w, ", %d functions failed", failures)
	}
	fmt.Fprintln(w)
}
