// Package commands provides the CLI commands of gcfg.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-builder/internal/config"
	"github.com/l3aro/go-cfg-builder/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gcfg",
	Short: "gcfg - control flow graphs for Go functions",
	Long: `gcfg lowers Go function bodies to statement-level control flow graphs.

Commands:
  cfg         Build and print the graph of one function
  list        List the functions of a file
  build       Build the graphs of every function under a directory
  init        Write a configuration file interactively

Use "gcfg [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file (default: .gcfg/config.yaml, then ~/.gcfg/config.yaml)")
	RootCmd.PersistentFlags().BoolP("verbose", "V", false, "Verbose logging")

	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(buildCmd)
	RootCmd.AddCommand(initCmd)
}

// setup loads the configuration selected by the persistent flags and a
// logger matching its verbosity.
func setup(cmd *cobra.Command) (*config.Config, log.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	level := log.WarnLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.New(log.LoggerConfig{Level: level, Output: cmd.ErrOrStderr()})
	return cfg, logger, nil
}
