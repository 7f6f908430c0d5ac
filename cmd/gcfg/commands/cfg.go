package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-builder/internal/config"
	"github.com/l3aro/go-cfg-builder/internal/log"
	"github.com/l3aro/go-cfg-builder/internal/source"
	"github.com/l3aro/go-cfg-builder/pkg/cache"
	"github.com/l3aro/go-cfg-builder/pkg/cfg"
	"github.com/l3aro/go-cfg-builder/pkg/extractor"
	"github.com/l3aro/go-cfg-builder/pkg/program"
)

var (
	cfgJSON       bool
	cfgDot        bool
	cfgNoSimplify bool
	cfgNoCache    bool
)

var cfgCmd = &cobra.Command{
	Use:   "cfg <file|url> <function>",
	Short: "Build the control flow graph of a function",
	Long: `Build the control flow graph of one function and print it.

The function is named "F" for a plain function or "T.M" for a method.
The file may be a local path or any URL supported by the storage layer
(file://, mem://, gs://, s3://).

Examples:
  gcfg cfg main.go main
  gcfg cfg server.go Server.Handle --dot | dot -Tsvg > handle.svg`,
	Args: cobra.ExactArgs(2),
	RunE: runCfg,
}

func init() {
	cfgCmd.Flags().BoolVarP(&cfgJSON, "json", "j", false, "Output as JSON")
	cfgCmd.Flags().BoolVar(&cfgDot, "dot", false, "Output as Graphviz dot")
	cfgCmd.Flags().BoolVar(&cfgNoSimplify, "no-simplify", false, "Keep no-op nodes")
	cfgCmd.Flags().BoolVar(&cfgNoCache, "no-cache", false, "Bypass the graph cache")
}

func runCfg(cmd *cobra.Command, args []string) error {
	conf, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	location, function := args[0], args[1]

	format := conf.OutputFormat
	switch {
	case cfgDot:
		format = config.OutputDot
	case cfgJSON:
		format = config.OutputJSON
	}
	simplify := conf.Simplify && !cfgNoSimplify

	content, name, err := source.NewReader().Read(cmd.Context(), location)
	if err != nil {
		return err
	}

	// dot output needs the live graph; text and JSON render from the
	// exported form the cache holds.
	var store *cache.Store
	key := cache.Key(location, function+cacheVariant(simplify), content)
	if conf.CacheEnabled && !cfgNoCache && format != config.OutputDot {
		store, err = cache.OpenStore(conf.CacheDir, conf.CacheMaxEntries)
		if err != nil {
			logger.Warn("graph cache unavailable", "error", err)
			store = nil
		} else {
			defer closeStore(store, logger)
			if info, err := store.Get(key); err == nil && info != nil {
				logger.Debug("cache hit", "key", key)
				return render(cmd.OutOrStdout(), format, info, nil)
			}
		}
	}

	g, err := buildOne(cmd, name, content, function, simplify, logger)
	if err != nil {
		return err
	}

	info := cfg.Export(g)
	if store != nil {
		if err := store.Put(key, info); err != nil {
			logger.Warn("caching graph failed", "error", err)
		}
	}
	return render(cmd.OutOrStdout(), format, info, g)
}

// buildOne builds every function of the file and returns the requested one.
// An unknown name is reported with the closest declared names.
func buildOne(cmd *cobra.Command, filename string, content []byte, function string, simplify bool, logger log.Logger) (*cfg.Graph, error) {
	opts := program.DefaultOptions()
	opts.Simplify = simplify
	opts.Logger = logger

	unit, err := program.BuildSource(cmd.Context(), filename, content, opts)
	if err != nil {
		return nil, err
	}
	if g := unit.Graph(function); g != nil {
		return g, nil
	}
	for _, f := range unit.Failures {
		if f.Function == function {
			return nil, f
		}
	}
	return nil, notFound(content, function)
}

var errFunctionNotFound = errors.New("function not found")

func notFound(content []byte, function string) error {
	entries, err := extractor.FuncIndex(content)
	if err != nil {
		return fmt.Errorf("%w: %s", errFunctionNotFound, function)
	}
	if suggestions := extractor.Suggest(entries, function); len(suggestions) > 0 {
		return fmt.Errorf("%w: %s (did you mean %s?)", errFunctionNotFound, function, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("%w: %s", errFunctionNotFound, function)
}

func render(w io.Writer, format config.OutputFormat, info *cfg.CFGInfo, g *cfg.Graph) error {
	switch format {
	case config.OutputJSON:
		return printJSON(w, info)
	case config.OutputDot:
		if g == nil {
			return fmt.Errorf("dot output requires a built graph")
		}
		return cfg.WriteDot(w, g)
	default:
		printInfo(w, info, "")
		return nil
	}
}

func cacheVariant(simplify bool) string {
	if simplify {
		return ""
	}
	return "#raw"
}

func closeStore(store *cache.Store, logger log.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("persisting graph cache failed", "error", err)
	}
}
